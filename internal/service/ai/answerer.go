package ai

import (
	"context"
	"log/slog"
	"math"

	"github.com/zhouzirui/faq-assistant/internal/analysis/emotion"
	"github.com/zhouzirui/faq-assistant/internal/model/chat"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

const (
	SourceFAQ      = "faq"
	SourceAI       = "ai"
	SourceFallback = "fallback"

	// NoMatchAnswer is returned when neither the FAQ nor the model can answer.
	NoMatchAnswer = "I couldn't find an answer to that in our FAQ. A support agent will follow up with you."
)

// Thresholds tune how FAQ similarity turns into an answer.
type Thresholds struct {
	// Match is the minimum similarity for answering from the FAQ.
	Match float64
	// Human is the confidence under which the answer is flagged for a person.
	Human float64
}

// DefaultThresholds suit the hashed bag-of-words embedding.
func DefaultThresholds() Thresholds {
	return Thresholds{Match: 0.45, Human: 0.5}
}

// ToneAnalyzer detects emotions in a question.
type ToneAnalyzer interface {
	Analyze(ctx context.Context, question string, history []chat.Turn) emotion.Result
}

type keywordTone struct{}

func (keywordTone) Analyze(_ context.Context, question string, _ []chat.Turn) emotion.Result {
	return emotion.Analyze(question)
}

// Answerer turns a question into a chat response.
type Answerer struct {
	index      *Index
	generator  Generator
	tone       ToneAnalyzer
	thresholds Thresholds
}

// NewAnswerer builds an Answerer. generator may be nil.
func NewAnswerer(index *Index, generator Generator, thresholds Thresholds) *Answerer {
	return &Answerer{index: index, generator: generator, tone: keywordTone{}, thresholds: thresholds}
}

// WithToneAnalyzer replaces the keyword emotion detector.
func (a *Answerer) WithToneAnalyzer(tone ToneAnalyzer) *Answerer {
	if tone != nil {
		a.tone = tone
	}
	return a
}

// Answer answers question using the FAQ index first and the model second.
func (a *Answerer) Answer(ctx context.Context, sessionID, question string, history []chat.Turn) chat.ChatResponse {
	tone := a.tone.Analyze(ctx, question, history)
	resp := chat.ChatResponse{SessionID: sessionID}
	if len(tone.Emotions) > 0 {
		resp.EmotionAnalysis = &chat.EmotionAnalysis{Emotions: tone.Strings()}
	}

	matches, err := a.index.Search(ctx, question, 3)
	if err != nil {
		slog.Warn("FAQ search failed", "err", err)
	}

	if len(matches) > 0 {
		best := matches[0]
		similarity := round2(best.Similarity)
		resp.Similarity = &similarity

		if best.Similarity >= a.thresholds.Match {
			confidence := similarity
			resp.Answer = best.FAQ.Answer
			resp.Source = SourceFAQ
			resp.Confidence = &confidence
			resp.RequiresHuman = best.Similarity < a.thresholds.Human || tone.Negative()
			return resp
		}
	}

	if a.generator != nil {
		answer, err := a.generator.Generate(ctx, GenerateInput{
			SessionID:  sessionID,
			Question:   question,
			History:    history,
			References: references(matches),
			Emotions:   tone.Emotions,
		})
		if err == nil && answer != "" {
			resp.Answer = answer
			resp.Source = SourceAI
			resp.RequiresHuman = tone.Negative()
			return resp
		}
		slog.Warn("AI answer unavailable, using fallback", "session_id", sessionID, "err", err)
	}

	zero := 0.0
	resp.Answer = NoMatchAnswer
	resp.Source = SourceFallback
	resp.Confidence = &zero
	resp.RequiresHuman = true
	return resp
}

func references(matches []Match) []faq.FAQ {
	out := make([]faq.FAQ, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.FAQ)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
