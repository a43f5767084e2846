package chat

import "time"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// SourceError marks bot messages produced locally after a failed chat call.
const SourceError = "error"

// EmotionAnalysis is the backend's reading of the question's tone.
type EmotionAnalysis struct {
	Emotions []string `json:"emotions"`
}

// Message is one immutable transcript entry.
type Message struct {
	Role            Role             `json:"role"`
	Text            string           `json:"text"`
	Confidence      *float64         `json:"confidence,omitempty"`
	Source          string           `json:"source,omitempty"`
	Similarity      *float64         `json:"similarity,omitempty"`
	RequiresHuman   bool             `json:"requiresHuman,omitempty"`
	EmotionAnalysis *EmotionAnalysis `json:"emotionAnalysis,omitempty"`
	SessionID       string           `json:"sessionId,omitempty"`
	// Exchange pairs a user message with the bot reply it produced. Zero for
	// notices that are not part of an exchange.
	Exchange  uint64    `json:"exchange,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Emotions returns the detected emotions, or nil when none were reported.
func (m Message) Emotions() []string {
	if m.EmotionAnalysis == nil {
		return nil
	}
	return m.EmotionAnalysis.Emotions
}
