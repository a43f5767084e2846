package chat

// StartSessionResponse is returned by POST /session/start.
type StartSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// EndSessionRequest closes a session together with its rating.
type EndSessionRequest struct {
	SessionID string `json:"session_id"`
	Satisfied bool   `json:"satisfied"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// EndSessionResponse is returned by POST /session/end.
type EndSessionResponse struct {
	Success bool `json:"success"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse carries the answer and its metadata.
type ChatResponse struct {
	Answer          string           `json:"answer"`
	Confidence      *float64         `json:"confidence,omitempty"`
	Source          string           `json:"source,omitempty"`
	Similarity      *float64         `json:"similarity,omitempty"`
	RequiresHuman   bool             `json:"requires_human,omitempty"`
	EmotionAnalysis *EmotionAnalysis `json:"emotion_analysis,omitempty"`
	SessionID       string           `json:"session_id,omitempty"`
}

// InstantFeedbackRequest is the standalone thumbs-up/down signal.
type InstantFeedbackRequest struct {
	Satisfied bool `json:"satisfied"`
}
