package session

import (
	"context"
	"fmt"
)

// InstantFeedback sends a standalone thumbs-up or thumbs-down. It is offered
// only in NoSession. The request runs in the background; failures are logged
// and never retried, and rating the same message twice sends twice.
func (m *Manager) InstantFeedback(satisfied bool) error {
	m.mu.Lock()
	state := m.current.state()
	m.mu.Unlock()
	if state != NoSession {
		return fmt.Errorf("instant feedback from %s: %w", state, ErrSessionActive)
	}

	m.instant.Add(1)
	go func() {
		defer m.instant.Done()
		if err := m.backend.InstantFeedback(context.Background(), satisfied); err != nil {
			m.logger.Warn("Instant feedback not delivered", "satisfied", satisfied, "err", err)
			return
		}
		m.logger.Debug("Instant feedback delivered", "satisfied", satisfied)
	}()
	return nil
}

// Wait blocks until every pending instant feedback request has finished.
func (m *Manager) Wait() {
	m.instant.Wait()
}
