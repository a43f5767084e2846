package session

import "github.com/zhouzirui/faq-assistant/internal/model/chat"

// State names the lifecycle phase of the Manager.
type State int

const (
	NoSession State = iota
	SessionActive
	AwaitingFeedback
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case SessionActive:
		return "session_active"
	case AwaitingFeedback:
		return "awaiting_feedback"
	default:
		return "unknown"
	}
}

// lifecycle is a closed union: exactly one of the types below. A session id
// exists only in the active and awaiting variants, a draft only in the
// awaiting one.
type lifecycle interface {
	state() State
}

type noSession struct{}

type sessionActive struct {
	id string
}

type awaitingFeedback struct {
	id    string
	draft chat.FeedbackDraft
}

func (noSession) state() State        { return NoSession }
func (sessionActive) state() State    { return SessionActive }
func (awaitingFeedback) state() State { return AwaitingFeedback }

func sessionIDOf(l lifecycle) string {
	switch s := l.(type) {
	case sessionActive:
		return s.id
	case awaitingFeedback:
		return s.id
	default:
		return ""
	}
}
