package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/faq-assistant/internal/api"
	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

type fakeBackend struct {
	mu sync.Mutex

	startID  string
	startErr error

	endErr   error
	endCalls []chat.EndSessionRequest

	chatFn   func(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error)
	chatReqs []chat.ChatRequest

	instantErr   error
	instantCalls []bool
}

func (f *fakeBackend) StartSession(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.startID, nil
}

func (f *fakeBackend) EndSession(_ context.Context, req chat.EndSessionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endCalls = append(f.endCalls, req)
	return f.endErr
}

func (f *fakeBackend) Chat(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, req)
	fn := f.chatFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &chat.ChatResponse{Answer: "answer to " + req.Question}, nil
}

func (f *fakeBackend) InstantFeedback(_ context.Context, satisfied bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instantCalls = append(f.instantCalls, satisfied)
	return f.instantErr
}

func (f *fakeBackend) setEndErr(err error) {
	f.mu.Lock()
	f.endErr = err
	f.mu.Unlock()
}

func newManager(backend *fakeBackend) *Manager {
	return NewManager(backend, WithUsername("ann"))
}

func TestNewManagerShowsGreeting(t *testing.T) {
	m := newManager(&fakeBackend{})

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleBot, msgs[0].Role)
	assert.Equal(t, "Hello ann! I am your AI assistant. How can I help you today?", msgs[0].Text)
	assert.Equal(t, NoSession, m.State())
}

func TestFullLifecycleTranscriptLength(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7} {
		t.Run(fmt.Sprintf("%d messages", n), func(t *testing.T) {
			backend := &fakeBackend{startID: "s-1"}
			m := newManager(backend)
			ctx := context.Background()

			require.NoError(t, m.StartSession(ctx))
			for i := 0; i < n; i++ {
				_, err := m.SendMessage(ctx, fmt.Sprintf("question %d", i))
				require.NoError(t, err)
			}
			require.NoError(t, m.EndSession())
			require.NoError(t, m.SubmitFeedbackAndEndSession(ctx))

			msgs := m.Messages()
			assert.Len(t, msgs, 1+1+2*n+1)
			assert.Equal(t, SessionStartedText, msgs[1].Text)
			assert.Equal(t, ClosingText, msgs[len(msgs)-1].Text)
			assert.Equal(t, NoSession, m.State())
			assert.Empty(t, m.SessionID())
		})
	}
}

func TestStartSessionResetsTranscript(t *testing.T) {
	backend := &fakeBackend{startID: "s-1"}
	m := newManager(backend)
	ctx := context.Background()

	_, err := m.SendMessage(ctx, "before session")
	require.NoError(t, err)
	require.Len(t, m.Messages(), 3)

	require.NoError(t, m.StartSession(ctx))
	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, GreetingText("ann"), msgs[0].Text)
	assert.Equal(t, "s-1", msgs[1].SessionID)
	assert.Equal(t, SessionActive, m.State())
	assert.Equal(t, "s-1", m.SessionID())
}

func TestStartSessionFailureStaysInNoSession(t *testing.T) {
	backendErr := &api.Error{Op: "start session", Kind: api.KindServer, Status: 500}
	backend := &fakeBackend{startErr: backendErr}
	m := newManager(backend)

	err := m.StartSession(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.KindServer, api.KindOf(err))
	assert.Equal(t, NoSession, m.State())
	assert.Len(t, m.Messages(), 1)

	backend.mu.Lock()
	backend.startErr = nil
	backend.startID = "s-2"
	backend.mu.Unlock()

	require.NoError(t, m.StartSession(context.Background()))
	assert.Equal(t, "s-2", m.SessionID())
}

func TestStartSessionWhileStartingIsBusy(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := &blockingStartBackend{fakeBackend: fakeBackend{startID: "s-1"}, entered: entered, release: release}
	m := NewManager(backend)

	done := make(chan error, 1)
	go func() { done <- m.StartSession(context.Background()) }()
	<-entered

	assert.ErrorIs(t, m.StartSession(context.Background()), ErrBusy)
	assert.True(t, m.Snapshot().Starting)

	close(release)
	require.NoError(t, <-done)
	assert.ErrorIs(t, m.StartSession(context.Background()), ErrInvalidTransition)
}

type blockingStartBackend struct {
	fakeBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStartBackend) StartSession(ctx context.Context) (string, error) {
	close(b.entered)
	<-b.release
	return b.fakeBackend.StartSession(ctx)
}

func TestCancelPreservesTranscriptAndID(t *testing.T) {
	backend := &fakeBackend{startID: "s-1"}
	m := newManager(backend)
	ctx := context.Background()

	require.NoError(t, m.StartSession(ctx))
	_, err := m.SendMessage(ctx, "hello")
	require.NoError(t, err)
	before := m.Messages()

	require.NoError(t, m.EndSession())
	assert.Equal(t, AwaitingFeedback, m.State())
	require.NoError(t, m.SetRating(2))

	require.NoError(t, m.CancelFeedback())
	assert.Equal(t, SessionActive, m.State())
	assert.Equal(t, "s-1", m.SessionID())
	assert.Equal(t, before, m.Messages())

	_, ok := m.Draft()
	assert.False(t, ok, "draft must not outlive the feedback step")

	backend.mu.Lock()
	assert.Empty(t, backend.endCalls)
	backend.mu.Unlock()
}

func TestSubmitFailurePreservesDraftAndID(t *testing.T) {
	backend := &fakeBackend{startID: "s-1", endErr: errors.New("connection reset")}
	m := newManager(backend)
	ctx := context.Background()

	require.NoError(t, m.StartSession(ctx))
	require.NoError(t, m.EndSession())
	require.NoError(t, m.SetSatisfied(false))
	require.NoError(t, m.SetRating(3))
	require.NoError(t, m.SetComment("too slow"))
	before := m.Messages()

	require.Error(t, m.SubmitFeedbackAndEndSession(ctx))

	assert.Equal(t, AwaitingFeedback, m.State())
	assert.Equal(t, "s-1", m.SessionID())
	assert.Equal(t, before, m.Messages())
	draft, ok := m.Draft()
	require.True(t, ok)
	assert.Equal(t, chat.FeedbackDraft{Satisfied: false, Rating: 3, Comment: "too slow"}, draft)

	backend.setEndErr(nil)
	require.NoError(t, m.SubmitFeedbackAndEndSession(ctx))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.endCalls, 2)
	assert.Equal(t, backend.endCalls[0], backend.endCalls[1])
	assert.Equal(t, chat.EndSessionRequest{SessionID: "s-1", Satisfied: false, Rating: 3, Comment: "too slow"}, backend.endCalls[1])
}

func TestResetPasswordScenario(t *testing.T) {
	backend := &fakeBackend{
		startID: "abc123",
		chatFn: func(_ context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
			return &chat.ChatResponse{Answer: "Use the self-service portal.", RequiresHuman: false}, nil
		},
	}
	m := newManager(backend)
	ctx := context.Background()

	require.NoError(t, m.StartSession(ctx))
	before := len(m.Messages())

	reply, err := m.SendMessage(ctx, "How do I reset my password?")
	require.NoError(t, err)

	msgs := m.Messages()
	require.Len(t, msgs, before+2)
	user, bot := msgs[before], msgs[before+1]
	assert.Equal(t, chat.RoleUser, user.Role)
	assert.Equal(t, "How do I reset my password?", user.Text)
	assert.Equal(t, chat.RoleBot, bot.Role)
	assert.Equal(t, "Use the self-service portal.", bot.Text)
	assert.Empty(t, bot.Source)
	assert.False(t, bot.RequiresHuman)
	assert.Equal(t, "abc123", user.SessionID)
	assert.Equal(t, "abc123", bot.SessionID)
	assert.Equal(t, user.Exchange, bot.Exchange)
	assert.Equal(t, bot, reply)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.chatReqs, 1)
	assert.Equal(t, chat.ChatRequest{Question: "How do I reset my password?", SessionID: "abc123"}, backend.chatReqs[0])
}

func TestSendMessageCarriesMetadata(t *testing.T) {
	confidence, similarity := 0.82, 0.77
	backend := &fakeBackend{chatFn: func(context.Context, chat.ChatRequest) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{
			Answer:          "Restart the VPN client.",
			Confidence:      &confidence,
			Source:          "faq",
			Similarity:      &similarity,
			RequiresHuman:   true,
			EmotionAnalysis: &chat.EmotionAnalysis{Emotions: []string{"frustrated"}},
		}, nil
	}}
	m := newManager(backend)

	reply, err := m.SendMessage(context.Background(), "vpn broken again!!")
	require.NoError(t, err)
	assert.Equal(t, "faq", reply.Source)
	assert.Equal(t, &confidence, reply.Confidence)
	assert.Equal(t, &similarity, reply.Similarity)
	assert.True(t, reply.RequiresHuman)
	assert.Equal(t, []string{"frustrated"}, reply.Emotions())
	assert.Empty(t, reply.SessionID)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Empty(t, backend.chatReqs[0].SessionID)
}

func TestReplyOutsideSessionIgnoresBackendSessionID(t *testing.T) {
	backend := &fakeBackend{chatFn: func(context.Context, chat.ChatRequest) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Answer: "Use the portal.", SessionID: "server-side"}, nil
	}}
	m := newManager(backend)

	reply, err := m.SendMessage(context.Background(), "How do I reset my password?")
	require.NoError(t, err)
	assert.Empty(t, reply.SessionID)

	msgs := m.Messages()
	require.Len(t, msgs, 3)
	assert.Empty(t, msgs[1].SessionID)
	assert.Empty(t, msgs[2].SessionID)
	assert.Empty(t, m.SessionID())
}

func TestSendMessageNetworkErrorFallsBack(t *testing.T) {
	backend := &fakeBackend{startID: "s-1", chatFn: func(context.Context, chat.ChatRequest) (*chat.ChatResponse, error) {
		return nil, &api.Error{Op: "chat", Kind: api.KindNetwork, Err: errors.New("dial tcp: connection refused")}
	}}
	m := newManager(backend)
	ctx := context.Background()
	require.NoError(t, m.StartSession(ctx))

	reply, err := m.SendMessage(ctx, "anyone there?")
	require.NoError(t, err)

	msgs := m.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, chat.RoleUser, msgs[2].Role)
	assert.Equal(t, "anyone there?", msgs[2].Text)
	assert.Equal(t, chat.RoleBot, msgs[3].Role)
	assert.Equal(t, FallbackText, msgs[3].Text)
	assert.Equal(t, chat.SourceError, msgs[3].Source)
	assert.Equal(t, msgs[3], reply)
	assert.Equal(t, SessionActive, m.State())
}

func TestSendMessageRejectedWhileAwaitingFeedback(t *testing.T) {
	m := newManager(&fakeBackend{startID: "s-1"})
	ctx := context.Background()
	require.NoError(t, m.StartSession(ctx))
	require.NoError(t, m.EndSession())
	before := m.Messages()

	_, err := m.SendMessage(ctx, "one more thing")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, m.Messages())
}

func TestSendMessageRejectsBlankText(t *testing.T) {
	m := newManager(&fakeBackend{})
	_, err := m.SendMessage(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, m.Messages(), 1)
}

// Replies are appended in arrival order. Pairing by send order is not
// guaranteed; the Exchange number is what ties a reply to its question.
func TestConcurrentSendsArrivalOrder(t *testing.T) {
	firstRelease := make(chan struct{})
	bothSent := make(chan struct{}, 2)
	backend := &fakeBackend{startID: "s-1", chatFn: func(_ context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
		bothSent <- struct{}{}
		if req.Question == "first" {
			<-firstRelease
		}
		return &chat.ChatResponse{Answer: "re: " + req.Question}, nil
	}}
	m := newManager(backend)
	ctx := context.Background()
	require.NoError(t, m.StartSession(ctx))
	base := len(m.Messages())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = m.SendMessage(ctx, "first")
	}()
	<-bothSent

	_, err := m.SendMessage(ctx, "second")
	require.NoError(t, err)
	<-bothSent
	close(firstRelease)
	wg.Wait()

	msgs := m.Messages()[base:]
	require.Len(t, msgs, 4)

	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
	assert.Equal(t, "re: second", msgs[2].Text)
	assert.Equal(t, "re: first", msgs[3].Text)

	strictPairing := msgs[2].Text == "re: first"
	assert.False(t, strictPairing, "replies are expected in arrival order, not send order")

	byExchange := map[uint64][]string{}
	for _, msg := range msgs {
		byExchange[msg.Exchange] = append(byExchange[msg.Exchange], msg.Text)
	}
	assert.ElementsMatch(t, []string{"first", "re: first"}, byExchange[msgs[0].Exchange])
	assert.ElementsMatch(t, []string{"second", "re: second"}, byExchange[msgs[1].Exchange])
}

func TestConcurrentSendsCountIsStable(t *testing.T) {
	backend := &fakeBackend{startID: "s-1", chatFn: func(context.Context, chat.ChatRequest) (*chat.ChatResponse, error) {
		time.Sleep(time.Millisecond)
		return &chat.ChatResponse{Answer: "ok"}, nil
	}}
	m := newManager(backend)
	ctx := context.Background()
	require.NoError(t, m.StartSession(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = m.SendMessage(ctx, fmt.Sprintf("q%d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Messages(), 2+40)
}

func TestDraftDefaultsAfterSubmission(t *testing.T) {
	m := newManager(&fakeBackend{startID: "s-1"})
	ctx := context.Background()

	for round := 0; round < 3; round++ {
		require.NoError(t, m.StartSession(ctx))
		require.NoError(t, m.EndSession())

		draft, ok := m.Draft()
		require.True(t, ok)
		assert.Equal(t, chat.FeedbackDraft{Satisfied: true, Rating: 5, Comment: ""}, draft)

		require.NoError(t, m.SetSatisfied(false))
		require.NoError(t, m.SetRating(1))
		require.NoError(t, m.SetComment("meh"))
		require.NoError(t, m.SubmitFeedbackAndEndSession(ctx))

		_, ok = m.Draft()
		assert.False(t, ok)
	}
}

func TestSetRatingValidatesBounds(t *testing.T) {
	m := newManager(&fakeBackend{startID: "s-1"})
	require.NoError(t, m.StartSession(context.Background()))
	require.NoError(t, m.EndSession())

	assert.Error(t, m.SetRating(0))
	assert.Error(t, m.SetRating(6))
	draft, _ := m.Draft()
	assert.Equal(t, 5, draft.Rating)
}

func TestInvalidTransitions(t *testing.T) {
	m := newManager(&fakeBackend{startID: "s-1"})
	ctx := context.Background()

	assert.ErrorIs(t, m.EndSession(), ErrInvalidTransition)
	assert.ErrorIs(t, m.CancelFeedback(), ErrInvalidTransition)
	assert.ErrorIs(t, m.SubmitFeedbackAndEndSession(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, m.SetRating(3), ErrInvalidTransition)

	require.NoError(t, m.StartSession(ctx))
	assert.ErrorIs(t, m.StartSession(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, m.SetComment("x"), ErrInvalidTransition)

	require.NoError(t, m.EndSession())
	assert.ErrorIs(t, m.EndSession(), ErrInvalidTransition)
	assert.ErrorIs(t, m.StartSession(ctx), ErrInvalidTransition)
}

func TestInstantFeedbackOnlyOutsideSession(t *testing.T) {
	backend := &fakeBackend{startID: "s-1", instantErr: errors.New("lost")}
	m := newManager(backend)

	require.NoError(t, m.InstantFeedback(true))
	require.NoError(t, m.InstantFeedback(true))
	m.Wait()

	backend.mu.Lock()
	assert.Equal(t, []bool{true, true}, backend.instantCalls)
	backend.mu.Unlock()
	assert.Len(t, m.Messages(), 1, "instant feedback never touches the transcript")

	require.NoError(t, m.StartSession(context.Background()))
	assert.ErrorIs(t, m.InstantFeedback(false), ErrSessionActive)
	assert.False(t, m.Snapshot().InstantFeedback)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	m := newManager(&fakeBackend{startID: "s-1"})

	var mu sync.Mutex
	var got []Snapshot
	unsubscribe := m.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	require.NoError(t, m.StartSession(context.Background()))
	require.NoError(t, m.EndSession())
	unsubscribe()
	require.NoError(t, m.CancelFeedback())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, AwaitingFeedback, last.State)
	assert.Equal(t, "awaiting_feedback", last.StateName)
	require.NotNil(t, last.Draft)
	assert.Equal(t, chat.DefaultFeedbackDraft(), *last.Draft)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Version, got[i-1].Version)
	}
}

func TestLateReplyKeepsOriginalSession(t *testing.T) {
	release := make(chan struct{})
	sent := make(chan struct{})
	backend := &fakeBackend{startID: "s-1", chatFn: func(context.Context, chat.ChatRequest) (*chat.ChatResponse, error) {
		close(sent)
		<-release
		return &chat.ChatResponse{Answer: "late"}, nil
	}}
	m := newManager(backend)
	ctx := context.Background()
	require.NoError(t, m.StartSession(ctx))

	done := make(chan chat.Message, 1)
	go func() {
		reply, _ := m.SendMessage(ctx, "slow question")
		done <- reply
	}()
	<-sent

	require.NoError(t, m.EndSession())
	require.NoError(t, m.SubmitFeedbackAndEndSession(ctx))
	close(release)

	reply := <-done
	assert.Equal(t, "s-1", reply.SessionID)
	assert.Equal(t, NoSession, m.State())
}
