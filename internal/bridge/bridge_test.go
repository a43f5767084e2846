package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
	"github.com/zhouzirui/faq-assistant/internal/service/session"
)

type stubBackend struct {
	mu   sync.Mutex
	ends []chat.EndSessionRequest
}

func (s *stubBackend) StartSession(context.Context) (string, error) { return "sess-1", nil }

func (s *stubBackend) EndSession(_ context.Context, req chat.EndSessionRequest) error {
	s.mu.Lock()
	s.ends = append(s.ends, req)
	s.mu.Unlock()
	return nil
}

func (s *stubBackend) Chat(_ context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
	return &chat.ChatResponse{Answer: "echo: " + req.Question, Source: "faq"}, nil
}

func (s *stubBackend) InstantFeedback(context.Context, bool) error { return nil }

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T) (*websocket.Conn, *stubBackend, *session.Manager) {
	t.Helper()
	backend := &stubBackend{}
	mgr := session.NewManager(backend)
	b := New(mgr, nil, nil)

	srv := httptest.NewServer(b.Routes())
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws, backend, mgr
}

func intent(t *testing.T, ws *websocket.Conn, kind string, data any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]any{"type": kind, "data": data}))
}

// nextSnapshot reads until a snapshot satisfying ok arrives.
func nextSnapshot(t *testing.T, ws *websocket.Conn, ok func(session.Snapshot) bool) session.Snapshot {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg received
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Type != "snapshot" {
			continue
		}
		var snap session.Snapshot
		require.NoError(t, json.Unmarshal(msg.Data, &snap))
		if ok(snap) {
			return snap
		}
	}
}

func nextError(t *testing.T, ws *websocket.Conn) errorData {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg received
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Type != "error" {
			continue
		}
		var data errorData
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		return data
	}
}

func inState(name string) func(session.Snapshot) bool {
	return func(s session.Snapshot) bool { return s.StateName == name }
}

func TestBridgeSessionLifecycle(t *testing.T) {
	ws, backend, _ := dial(t)

	first := nextSnapshot(t, ws, inState("no_session"))
	assert.Len(t, first.Messages, 1)
	assert.True(t, first.InstantFeedback)

	intent(t, ws, IntentStart, nil)
	active := nextSnapshot(t, ws, inState("session_active"))
	assert.Equal(t, "sess-1", active.SessionID)

	intent(t, ws, IntentSend, sendData{Text: "hello"})
	withReply := nextSnapshot(t, ws, func(s session.Snapshot) bool { return len(s.Messages) == 4 })
	assert.Equal(t, "echo: hello", withReply.Messages[3].Text)
	assert.Equal(t, "sess-1", withReply.Messages[3].SessionID)

	intent(t, ws, IntentEnd, nil)
	nextSnapshot(t, ws, inState("awaiting_feedback"))

	rating := 3
	comment := "ok"
	intent(t, ws, IntentDraft, draftData{Rating: &rating, Comment: &comment})
	nextSnapshot(t, ws, func(s session.Snapshot) bool { return s.Draft != nil && s.Draft.Rating == 3 && s.Draft.Comment == "ok" })

	intent(t, ws, IntentSubmit, nil)
	done := nextSnapshot(t, ws, inState("no_session"))
	assert.Empty(t, done.SessionID)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.ends, 1)
	assert.Equal(t, chat.EndSessionRequest{SessionID: "sess-1", Satisfied: true, Rating: 3, Comment: "ok"}, backend.ends[0])
}

func TestBridgeReportsRejectedIntents(t *testing.T) {
	ws, _, _ := dial(t)
	nextSnapshot(t, ws, inState("no_session"))

	intent(t, ws, IntentEnd, nil)
	e := nextError(t, ws)
	assert.Equal(t, IntentEnd, e.Intent)
	assert.Contains(t, e.Message, session.ErrInvalidTransition.Error())

	intent(t, ws, "dance", nil)
	e = nextError(t, ws)
	assert.Equal(t, "unknown intent", e.Message)
}

func TestBridgeInstantFeedbackOnlyOutsideSession(t *testing.T) {
	ws, _, mgr := dial(t)
	nextSnapshot(t, ws, inState("no_session"))

	intent(t, ws, IntentStart, nil)
	nextSnapshot(t, ws, inState("session_active"))

	intent(t, ws, IntentInstant, instantData{Satisfied: true})
	e := nextError(t, ws)
	assert.Contains(t, e.Message, session.ErrSessionActive.Error())
	mgr.Wait()
}

func TestSnapshotEndpoint(t *testing.T) {
	mgr := session.NewManager(&stubBackend{})
	srv := httptest.NewServer(New(mgr, nil, nil).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "no_session", snap.StateName)
}

func TestOriginCheck(t *testing.T) {
	b := New(session.NewManager(&stubBackend{}), []string{"http://localhost:3000"}, nil)

	req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8090/ws", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, b.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, b.upgrader.CheckOrigin(req))
}
