package chat

import "time"

// Turn is one answered question kept by the backend for conversation memory.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Source   string    `json:"source,omitempty"`
	AskedAt  time.Time `json:"askedAt"`
}

// SessionRecord is the backend's view of a session.
type SessionRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Satisfied *bool      `json:"satisfied,omitempty"`
	Rating    int        `json:"rating,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	Turns     []Turn     `json:"turns"`
}

// Ended reports whether feedback has been recorded.
func (s SessionRecord) Ended() bool { return s.EndedAt != nil }

// QuestionRecord is one asked question, with or without a session.
type QuestionRecord struct {
	Question  string    `json:"question"`
	SessionID string    `json:"sessionId,omitempty"`
	AskedAt   time.Time `json:"askedAt"`
}

// InstantFeedbackRecord is one thumbs-up or thumbs-down.
type InstantFeedbackRecord struct {
	Satisfied  bool      `json:"satisfied"`
	ReceivedAt time.Time `json:"receivedAt"`
}
