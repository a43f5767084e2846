package session

import (
	"context"
	"fmt"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

// Draft returns the feedback draft while awaiting feedback.
func (m *Manager) Draft() (chat.FeedbackDraft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	awaiting, ok := m.current.(awaitingFeedback)
	if !ok {
		return chat.FeedbackDraft{}, false
	}
	return awaiting.draft, true
}

func (m *Manager) SetSatisfied(satisfied bool) error {
	return m.editDraft("set satisfied", func(d *chat.FeedbackDraft) error {
		d.Satisfied = satisfied
		return nil
	})
}

// SetRating accepts 1 to 5.
func (m *Manager) SetRating(rating int) error {
	return m.editDraft("set rating", func(d *chat.FeedbackDraft) error {
		next := *d
		next.Rating = rating
		if err := next.Validate(); err != nil {
			return err
		}
		*d = next
		return nil
	})
}

func (m *Manager) SetComment(comment string) error {
	return m.editDraft("set comment", func(d *chat.FeedbackDraft) error {
		d.Comment = comment
		return nil
	})
}

func (m *Manager) editDraft(op string, edit func(*chat.FeedbackDraft) error) error {
	m.mu.Lock()
	awaiting, ok := m.current.(awaitingFeedback)
	if !ok {
		state := m.current.state()
		m.mu.Unlock()
		return fmt.Errorf("%s from %s: %w", op, state, ErrInvalidTransition)
	}
	if m.submitting {
		m.mu.Unlock()
		return ErrBusy
	}
	if err := edit(&awaiting.draft); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", op, err)
	}
	m.current = awaiting
	publish := m.changedLocked()
	m.mu.Unlock()
	publish()
	return nil
}

// CancelFeedback returns to the open session without contacting the backend.
func (m *Manager) CancelFeedback() error {
	m.mu.Lock()
	awaiting, ok := m.current.(awaitingFeedback)
	if !ok {
		state := m.current.state()
		m.mu.Unlock()
		return fmt.Errorf("cancel feedback from %s: %w", state, ErrInvalidTransition)
	}
	if m.submitting {
		m.mu.Unlock()
		return ErrBusy
	}
	m.current = sessionActive{id: awaiting.id}
	publish := m.changedLocked()
	m.mu.Unlock()
	publish()
	return nil
}

// SubmitFeedbackAndEndSession sends the draft and closes the session. On
// failure nothing changes and the call can be retried as is.
func (m *Manager) SubmitFeedbackAndEndSession(ctx context.Context) error {
	m.mu.Lock()
	awaiting, ok := m.current.(awaitingFeedback)
	if !ok {
		state := m.current.state()
		m.mu.Unlock()
		return fmt.Errorf("submit feedback from %s: %w", state, ErrInvalidTransition)
	}
	if m.submitting {
		m.mu.Unlock()
		return ErrBusy
	}
	m.submitting = true
	publish := m.changedLocked()
	m.mu.Unlock()
	publish()

	err := m.backend.EndSession(ctx, chat.EndSessionRequest{
		SessionID: awaiting.id,
		Satisfied: awaiting.draft.Satisfied,
		Rating:    awaiting.draft.Rating,
		Comment:   awaiting.draft.Comment,
	})

	m.mu.Lock()
	m.submitting = false
	if err != nil {
		publish = m.changedLocked()
		m.mu.Unlock()
		publish()
		m.logger.Error("Failed to submit feedback", "session_id", awaiting.id, "err", err)
		return fmt.Errorf("submit feedback: %w", err)
	}

	m.current = noSession{}
	m.transcript.append(botMessage(ClosingText, awaiting.id))
	publish = m.changedLocked()
	m.mu.Unlock()
	publish()

	m.logger.Info("Session ended", "session_id", awaiting.id, "rating", awaiting.draft.Rating, "satisfied", awaiting.draft.Satisfied)
	return nil
}
