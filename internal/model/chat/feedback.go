package chat

import "fmt"

const (
	MinRating = 1
	MaxRating = 5
)

// FeedbackDraft is the end-of-session rating being edited.
type FeedbackDraft struct {
	Satisfied bool   `json:"satisfied"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// DefaultFeedbackDraft is the draft every feedback step starts from.
func DefaultFeedbackDraft() FeedbackDraft {
	return FeedbackDraft{Satisfied: true, Rating: MaxRating, Comment: ""}
}

// Validate checks the rating bounds.
func (d FeedbackDraft) Validate() error {
	if d.Rating < MinRating || d.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, d.Rating)
	}
	return nil
}
