package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/faq-assistant/internal/analysis/emotion"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

// PromptTemplate defines the structure of the assistant system prompt.
type PromptTemplate struct {
	SystemPrompt string
	ContextRules []string
}

// DefaultPromptTemplate is the IT help-desk assistant prompt.
func DefaultPromptTemplate() PromptTemplate {
	return PromptTemplate{
		SystemPrompt: "You are the internal IT help-desk assistant. Answer employee questions briefly and accurately.",
		ContextRules: []string{
			"Prefer the reference FAQ entries below when they apply; do not contradict them",
			"If the question is outside IT support or you are not sure, say so and suggest contacting the help desk",
			"Never invent internal URLs, phone numbers or ticket ids",
			"Keep answers under 120 words unless steps are required",
			"Remember earlier questions in this conversation and refer back to them when useful",
		},
	}
}

// BuildSystemPrompt assembles the system prompt from the template, the closest
// FAQ entries and the detected emotions.
func (t PromptTemplate) BuildSystemPrompt(references []faq.FAQ, emotions []emotion.Label) string {
	var b strings.Builder
	b.WriteString(t.SystemPrompt)

	if len(t.ContextRules) > 0 {
		b.WriteString("\n\nRules:\n- ")
		b.WriteString(strings.Join(t.ContextRules, "\n- "))
	}

	if len(references) > 0 {
		b.WriteString("\n\nReference FAQ entries:")
		for i, item := range references {
			fmt.Fprintf(&b, "\n%d. Q: %s\n   A: %s", i+1, item.Question, item.Answer)
		}
	}

	var tones []string
	for _, label := range emotions {
		if desc := describeEmotion(label); desc != "" {
			tones = append(tones, desc)
		}
	}
	if len(tones) > 0 {
		b.WriteString("\n\nThe user's tone: ")
		b.WriteString(strings.Join(tones, " "))
	}

	return b.String()
}

func describeEmotion(label emotion.Label) string {
	switch label {
	case emotion.Frustrated:
		return "The user is frustrated; acknowledge the repeated trouble and give concrete steps."
	case emotion.Angry:
		return "The user is upset; stay calm and factual and offer escalation to a human."
	case emotion.Confused:
		return "The user is confused; explain plainly, one step at a time."
	case emotion.Anxious:
		return "The user is worried; reassure them about what is safe."
	case emotion.Urgent:
		return "The request is urgent; lead with the fastest workaround."
	case emotion.Grateful, emotion.Happy:
		return "The user is positive; keep the reply short and friendly."
	default:
		return ""
	}
}
