package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

var (
	ErrQuestionRequired = errors.New("question is required")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionEnded     = errors.New("session already ended")
)

// Service keeps sessions, asked questions and feedback in memory.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*chat.SessionRecord
	questions []chat.QuestionRecord
	instant   []chat.InstantFeedbackRecord
	now       func() time.Time
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*chat.SessionRecord),
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// StartSession provisions a new session, optionally owned by userID.
func (s *Service) StartSession(_ context.Context, userID string) (chat.SessionRecord, error) {
	record := &chat.SessionRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: s.now().UTC(),
		Turns:     make([]chat.Turn, 0, 8),
	}

	s.mu.Lock()
	s.sessions[record.ID] = record
	s.mu.Unlock()

	return *record, nil
}

// EndSession closes a session and stores its rating.
func (s *Service) EndSession(_ context.Context, req chat.EndSessionRequest) error {
	draft := chat.FeedbackDraft{Satisfied: req.Satisfied, Rating: req.Rating, Comment: req.Comment}
	if err := draft.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[req.SessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if record.Ended() {
		return ErrSessionEnded
	}

	ended := s.now().UTC()
	satisfied := req.Satisfied
	record.EndedAt = &ended
	record.Satisfied = &satisfied
	record.Rating = req.Rating
	record.Comment = strings.TrimSpace(req.Comment)
	return nil
}

// History returns the answered turns of an open session. Unknown and empty
// ids yield no history.
func (s *Service) History(_ context.Context, sessionID string) ([]chat.Turn, error) {
	if sessionID == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if record.Ended() {
		return nil, ErrSessionEnded
	}

	copied := make([]chat.Turn, len(record.Turns))
	copy(copied, record.Turns)
	return copied, nil
}

// RecordTurn stores an answered question. Every question counts towards
// analytics; it is added to the session memory when sessionID is set.
func (s *Service) RecordTurn(_ context.Context, sessionID string, turn chat.Turn) error {
	question := strings.TrimSpace(turn.Question)
	if question == "" {
		return ErrQuestionRequired
	}
	if turn.AskedAt.IsZero() {
		turn.AskedAt = s.now().UTC()
	}
	turn.Question = question

	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID != "" {
		record, ok := s.sessions[sessionID]
		if !ok {
			return ErrSessionNotFound
		}
		if record.Ended() {
			return ErrSessionEnded
		}
		record.Turns = append(record.Turns, turn)
	}

	s.questions = append(s.questions, chat.QuestionRecord{
		Question:  question,
		SessionID: sessionID,
		AskedAt:   turn.AskedAt,
	})
	return nil
}

// RecordInstantFeedback stores a thumbs-up or thumbs-down.
func (s *Service) RecordInstantFeedback(_ context.Context, satisfied bool) {
	s.mu.Lock()
	s.instant = append(s.instant, chat.InstantFeedbackRecord{Satisfied: satisfied, ReceivedAt: s.now().UTC()})
	s.mu.Unlock()
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return chat.SessionRecord{}, ErrSessionNotFound
	}
	return *record, nil
}

// Questions returns every recorded question.
func (s *Service) Questions() []chat.QuestionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.QuestionRecord(nil), s.questions...)
}

// EndedSessions returns sessions that carry feedback.
func (s *Service) EndedSessions() []chat.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.SessionRecord, 0, len(s.sessions))
	for _, record := range s.sessions {
		if record.Ended() {
			out = append(out, *record)
		}
	}
	return out
}

// InstantFeedback returns every thumbs-up or thumbs-down received.
func (s *Service) InstantFeedback() []chat.InstantFeedbackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.InstantFeedbackRecord(nil), s.instant...)
}
