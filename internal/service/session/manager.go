// Package session drives the client-side conversation lifecycle:
// NoSession -> SessionActive -> AwaitingFeedback -> NoSession.
//
// Manager methods may be called from any goroutine. State is guarded by a
// mutex that is never held across a backend call, so a pending chat request
// does not block starting another one or any lifecycle operation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

var (
	ErrInvalidTransition = errors.New("operation not allowed in current session state")
	ErrBusy              = errors.New("a session operation is already in progress")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrSessionActive     = errors.New("instant feedback is only available outside a session")
)

// Backend is the subset of the API client the Manager needs.
type Backend interface {
	StartSession(ctx context.Context) (string, error)
	EndSession(ctx context.Context, req chat.EndSessionRequest) error
	Chat(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error)
	InstantFeedback(ctx context.Context, satisfied bool) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithUsername sets the name used in the greeting.
func WithUsername(name string) Option {
	return func(m *Manager) { m.username = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock overrides the timestamp source for messages.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Snapshot is a consistent copy of the Manager state.
type Snapshot struct {
	Version    uint64              `json:"version"`
	State      State               `json:"-"`
	StateName  string              `json:"state"`
	SessionID  string              `json:"sessionId,omitempty"`
	Draft      *chat.FeedbackDraft `json:"draft,omitempty"`
	Messages   []chat.Message      `json:"messages"`
	Starting   bool                `json:"starting"`
	Submitting bool                `json:"submitting"`
	// InstantFeedback reports whether thumbs-up/down may be offered.
	InstantFeedback bool `json:"instantFeedback"`
}

// Manager owns the session state machine and the transcript.
type Manager struct {
	backend  Backend
	logger   *slog.Logger
	username string
	now      func() time.Time

	mu          sync.Mutex
	current     lifecycle
	transcript  *Transcript
	starting    bool
	submitting  bool
	version     uint64
	subscribers map[int]func(Snapshot)
	nextSub     int

	instant sync.WaitGroup
}

// NewManager returns a Manager in NoSession showing the greeting.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:     backend,
		logger:      slog.Default(),
		now:         time.Now,
		current:     noSession{},
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	m.transcript = newTranscript(m.now)
	m.transcript.append(botMessage(GreetingText(m.username), ""))
	return m
}

// SetUsername changes the greeting name used by the next StartSession.
func (m *Manager) SetUsername(name string) {
	m.mu.Lock()
	m.username = name
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.state()
}

// SessionID returns the active session id, empty in NoSession.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sessionIDOf(m.current)
}

// Messages returns a copy of the transcript.
func (m *Manager) Messages() []chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript.Messages()
}

// Snapshot returns the full state at one point in time.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. Calls
// happen outside the lock and may arrive out of order across goroutines;
// consumers keep the highest Version.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// StartSession allocates a session on the backend. On failure the Manager
// stays in NoSession and the error is returned for the user to retry.
func (m *Manager) StartSession(ctx context.Context) error {
	m.mu.Lock()
	if m.current.state() != NoSession {
		m.mu.Unlock()
		return fmt.Errorf("start session from %s: %w", m.current.state(), ErrInvalidTransition)
	}
	if m.starting {
		m.mu.Unlock()
		return ErrBusy
	}
	m.starting = true
	publish := m.changedLocked()
	m.mu.Unlock()
	publish()

	id, err := m.backend.StartSession(ctx)

	m.mu.Lock()
	m.starting = false
	if err != nil {
		publish = m.changedLocked()
		m.mu.Unlock()
		publish()
		m.logger.Error("Failed to start session", "err", err)
		return fmt.Errorf("start session: %w", err)
	}

	m.current = sessionActive{id: id}
	m.transcript.reset(
		botMessage(GreetingText(m.username), ""),
		botMessage(SessionStartedText, id),
	)
	publish = m.changedLocked()
	m.mu.Unlock()
	publish()

	m.logger.Info("Session started", "session_id", id)
	return nil
}

// EndSession opens the feedback step with a default draft. The backend is
// contacted only by SubmitFeedbackAndEndSession.
func (m *Manager) EndSession() error {
	m.mu.Lock()
	active, ok := m.current.(sessionActive)
	if !ok {
		state := m.current.state()
		m.mu.Unlock()
		return fmt.Errorf("end session from %s: %w", state, ErrInvalidTransition)
	}
	m.current = awaitingFeedback{id: active.id, draft: chat.DefaultFeedbackDraft()}
	publish := m.changedLocked()
	m.mu.Unlock()
	publish()
	return nil
}

// SendMessage appends text as a user message, asks the backend and appends
// the reply. A failed chat call appends the fallback message instead and is
// not reported as an error. The returned message is the appended bot reply.
func (m *Manager) SendMessage(ctx context.Context, text string) (chat.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	m.mu.Lock()
	if m.current.state() == AwaitingFeedback {
		m.mu.Unlock()
		return chat.Message{}, fmt.Errorf("send message while awaiting feedback: %w", ErrInvalidTransition)
	}
	sessionID := sessionIDOf(m.current)
	exchange := m.transcript.nextExchange()
	m.transcript.append(chat.Message{
		Role:      chat.RoleUser,
		Text:      text,
		SessionID: sessionID,
		Exchange:  exchange,
	})
	publish := m.changedLocked()
	m.mu.Unlock()
	publish()

	resp, err := m.backend.Chat(ctx, chat.ChatRequest{Question: text, SessionID: sessionID})

	var reply chat.Message
	if err != nil {
		m.logger.Warn("Chat request failed", "session_id", sessionID, "exchange", exchange, "err", err)
		reply = fallbackMessage(sessionID, exchange)
	} else {
		reply = replyMessage(resp, sessionID, exchange)
	}

	m.mu.Lock()
	reply = m.transcript.append(reply)
	publish = m.changedLocked()
	m.mu.Unlock()
	publish()

	return reply, nil
}

func (m *Manager) snapshotLocked() Snapshot {
	state := m.current.state()
	snap := Snapshot{
		Version:         m.version,
		State:           state,
		StateName:       state.String(),
		SessionID:       sessionIDOf(m.current),
		Messages:        m.transcript.Messages(),
		Starting:        m.starting,
		Submitting:      m.submitting,
		InstantFeedback: state == NoSession,
	}
	if awaiting, ok := m.current.(awaitingFeedback); ok {
		draft := awaiting.draft
		snap.Draft = &draft
	}
	return snap
}

// changedLocked bumps the version and returns a func that delivers the new
// snapshot to subscribers. Call it after releasing the lock.
func (m *Manager) changedLocked() func() {
	m.version++
	if len(m.subscribers) == 0 {
		return func() {}
	}

	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(snap)
		}
	}
}
