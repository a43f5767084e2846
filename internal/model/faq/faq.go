package faq

// FAQ is a curated question/answer pair managed from the admin dashboard.
type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Input is the payload for creating or updating an FAQ. Blank fields are
// rejected before any request is issued.
type Input struct {
	Question string `json:"question" validate:"required,notblank"`
	Answer   string `json:"answer" validate:"required,notblank"`
}

// Complete reports whether both question and answer carry text.
func (f FAQ) Complete() bool {
	return hasText(f.Question) && hasText(f.Answer)
}
