package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

const (
	DefaultTopLimit = 10
	DefaultDays     = 7
	dateLayout      = "2006-01-02"
)

// Source exposes the raw records analytics are computed from.
type Source interface {
	Questions() []chat.QuestionRecord
	EndedSessions() []chat.SessionRecord
	InstantFeedback() []chat.InstantFeedbackRecord
}

// Service aggregates chat activity for the dashboard.
type Service struct {
	source Source
	now    func() time.Time
}

func NewService(source Source) *Service {
	return &Service{source: source, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TopQuestions counts questions case-insensitively and returns the most asked
// first. Ties keep the spelling and order of the first occurrence.
func (s *Service) TopQuestions(limit int) []faq.TopQuestion {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	counts := make(map[string]*faq.TopQuestion)
	order := make([]string, 0)
	for _, q := range s.source.Questions() {
		key := strings.ToLower(strings.Join(strings.Fields(q.Question), " "))
		if key == "" {
			continue
		}
		if entry, ok := counts[key]; ok {
			entry.Count++
			continue
		}
		counts[key] = &faq.TopQuestion{Question: strings.TrimSpace(q.Question), Count: 1}
		order = append(order, key)
	}

	items := pie.Map(order, func(key string) faq.TopQuestion { return *counts[key] })
	items = pie.SortStableUsing(items, func(a, b faq.TopQuestion) bool { return a.Count > b.Count })
	if top := pie.Top(items, limit); top != nil {
		return top
	}
	return []faq.TopQuestion{}
}

// DailyQuestionCounts returns one entry per day for the last days days,
// oldest first, including days without questions.
func (s *Service) DailyQuestionCounts(days int) []faq.DailyCount {
	if days <= 0 {
		days = DefaultDays
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(days - 1))

	byDay := pie.GroupBy(s.source.Questions(), func(q chat.QuestionRecord) string {
		return q.AskedAt.UTC().Format(dateLayout)
	})

	out := make([]faq.DailyCount, 0, days)
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		out = append(out, faq.DailyCount{Date: key, Count: len(byDay[key])})
	}
	return out
}

// CSAT is the percentage of satisfied responses over session ratings and
// instant feedback, rounded to one decimal. Nil when nothing was rated.
func (s *Service) CSAT() *float64 {
	votes := pie.Map(s.source.EndedSessions(), func(r chat.SessionRecord) bool {
		return r.Satisfied != nil && *r.Satisfied
	})
	votes = append(votes, pie.Map(s.source.InstantFeedback(), func(r chat.InstantFeedbackRecord) bool {
		return r.Satisfied
	})...)

	if len(votes) == 0 {
		return nil
	}

	satisfied := len(pie.Filter(votes, func(v bool) bool { return v }))
	score := math.Round(float64(satisfied)/float64(len(votes))*1000) / 10
	return &score
}

// AverageRating is the mean 1..5 session rating, zero without ratings.
func (s *Service) AverageRating() float64 {
	ratings := pie.Map(s.source.EndedSessions(), func(r chat.SessionRecord) int { return r.Rating })
	if len(ratings) == 0 {
		return 0
	}
	return math.Round(pie.Average(ratings)*100) / 100
}
