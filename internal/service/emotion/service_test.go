package emotion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysis "github.com/zhouzirui/faq-assistant/internal/analysis/emotion"
	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

type fakeModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeModel) BindTools([]*schema.ToolInfo) error { return nil }

func TestAnalyzeWithoutModelUsesKeywords(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	got := svc.Analyze(context.Background(), "This is urgent, the VPN is broken again!", nil)
	assert.Equal(t, analysis.Analyze("This is urgent, the VPN is broken again!"), got)
}

func TestAnalyzeDisabledIgnoresModel(t *testing.T) {
	fm := &fakeModel{reply: `{"emotions":["angry"],"intensity":5}`}
	svc, err := NewService(context.Background(), fm, Config{Enabled: false})
	require.NoError(t, err)

	svc.Analyze(context.Background(), "hello", nil)
	assert.Nil(t, fm.seen)
}

func TestAnalyzeParsesClassifierOutput(t *testing.T) {
	fm := &fakeModel{reply: "Sure:\n```json\n{\"emotions\":[\"Urgent\",\"anxious\",\"bored\",\"urgent\"],\"intensity\":4}\n```"}
	svc, err := NewService(context.Background(), fm, Config{Enabled: true, HistoryLimit: 1})
	require.NoError(t, err)

	history := []chat.Turn{
		{Question: "How do I reset my password?", Answer: "Use the portal."},
		{Question: "The portal link is dead", Answer: "Try again later."},
	}
	got := svc.Analyze(context.Background(), "I need access before the meeting", history)

	assert.Equal(t, []analysis.Label{analysis.Urgent, analysis.Anxious}, got.Emotions)
	assert.Equal(t, analysis.Urgent, got.Primary)
	assert.Equal(t, 8, got.Score)

	require.NotEmpty(t, fm.seen)
	user := fm.seen[len(fm.seen)-1].Content
	assert.Contains(t, user, "The portal link is dead")
	assert.NotContains(t, user, "reset my password")
	assert.True(t, strings.HasSuffix(user, "I need access before the meeting"))
}

func TestAnalyzeNeutralClassification(t *testing.T) {
	fm := &fakeModel{reply: `{"emotions":["neutral"],"intensity":1}`}
	svc, err := NewService(context.Background(), fm, Config{Enabled: true})
	require.NoError(t, err)

	got := svc.Analyze(context.Background(), "This is urgent!", nil)
	assert.Empty(t, got.Emotions)
	assert.Equal(t, analysis.Neutral, got.Primary)
}

func TestAnalyzeFallsBackOnBadOutput(t *testing.T) {
	question := "Thanks, that fixed it!"
	cases := map[string]*fakeModel{
		"invoke error":   {err: errors.New("boom")},
		"empty reply":    {reply: "  "},
		"not json":       {reply: "grateful"},
		"unknown labels": {reply: `{"emotions":["sleepy"]}`},
	}

	for name, fm := range cases {
		t.Run(name, func(t *testing.T) {
			svc, err := NewService(context.Background(), fm, Config{Enabled: true})
			require.NoError(t, err)
			assert.Equal(t, analysis.Analyze(question), svc.Analyze(context.Background(), question, nil))
		})
	}
}

func TestClampIntensity(t *testing.T) {
	assert.Equal(t, 3, clampIntensity(0))
	assert.Equal(t, 2, clampIntensity(2))
	assert.Equal(t, 5, clampIntensity(9))
}
