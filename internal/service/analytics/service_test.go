package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

type fakeSource struct {
	questions []chat.QuestionRecord
	sessions  []chat.SessionRecord
	instant   []chat.InstantFeedbackRecord
}

func (f fakeSource) Questions() []chat.QuestionRecord              { return f.questions }
func (f fakeSource) EndedSessions() []chat.SessionRecord           { return f.sessions }
func (f fakeSource) InstantFeedback() []chat.InstantFeedbackRecord { return f.instant }

var now = time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

func asked(question string, daysAgo int) chat.QuestionRecord {
	return chat.QuestionRecord{Question: question, AskedAt: now.AddDate(0, 0, -daysAgo)}
}

func TestTopQuestions(t *testing.T) {
	svc := NewService(fakeSource{questions: []chat.QuestionRecord{
		asked("How do I reset my password?", 0),
		asked("vpn down", 0),
		asked("how do i reset  my password?", 1),
		asked("VPN down", 2),
		asked("How do I reset my password?", 3),
		asked("printer", 3),
		asked("   ", 3),
	}}).WithClock(func() time.Time { return now })

	top := svc.TopQuestions(2)
	assert.Equal(t, []faq.TopQuestion{
		{Question: "How do I reset my password?", Count: 3},
		{Question: "vpn down", Count: 2},
	}, top)
}

func TestDailyQuestionCountsFillsGaps(t *testing.T) {
	svc := NewService(fakeSource{questions: []chat.QuestionRecord{
		asked("a", 0),
		asked("b", 0),
		asked("c", 2),
		asked("too old", 30),
	}}).WithClock(func() time.Time { return now })

	days := svc.DailyQuestionCounts(3)
	require.Len(t, days, 3)
	assert.Equal(t, faq.DailyCount{Date: "2026-10-15", Count: 1}, days[0])
	assert.Equal(t, faq.DailyCount{Date: "2026-10-16", Count: 0}, days[1])
	assert.Equal(t, faq.DailyCount{Date: "2026-10-17", Count: 2}, days[2])
}

func TestCSAT(t *testing.T) {
	yes, no := true, false
	svc := NewService(fakeSource{
		sessions: []chat.SessionRecord{{Satisfied: &yes, Rating: 5}, {Satisfied: &no, Rating: 2}},
		instant:  []chat.InstantFeedbackRecord{{Satisfied: true}},
	})

	score := svc.CSAT()
	require.NotNil(t, score)
	assert.InDelta(t, 66.7, *score, 0.001)
	assert.InDelta(t, 3.5, svc.AverageRating(), 0.001)
}

func TestCSATWithoutVotes(t *testing.T) {
	svc := NewService(fakeSource{})
	assert.Nil(t, svc.CSAT())
	assert.Zero(t, svc.AverageRating())
}
