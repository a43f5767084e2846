// Package bridge exposes a session Manager to a browser page over a local
// websocket. The page receives every snapshot and sends intents back.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/faq-assistant/internal/api"
	"github.com/zhouzirui/faq-assistant/internal/service/session"
	"github.com/zhouzirui/faq-assistant/pkg/utils"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Intent types accepted from the page.
const (
	IntentStart   = "start"
	IntentSend    = "send"
	IntentEnd     = "end"
	IntentDraft   = "draft"
	IntentSubmit  = "submit"
	IntentCancel  = "cancel"
	IntentInstant = "instant"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type sendData struct {
	Text string `json:"text"`
}

type draftData struct {
	Satisfied *bool   `json:"satisfied,omitempty"`
	Rating    *int    `json:"rating,omitempty"`
	Comment   *string `json:"comment,omitempty"`
}

type instantData struct {
	Satisfied bool `json:"satisfied"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type errorData struct {
	Intent  string `json:"intent,omitempty"`
	Message string `json:"message"`
}

// Bridge serves the websocket endpoint for one Manager.
type Bridge struct {
	mgr      *session.Manager
	logger   *slog.Logger
	upgrader websocket.Upgrader
	ops      sync.WaitGroup
}

// New builds a bridge. With no allowed origins only same-host pages may
// connect.
func New(mgr *session.Manager, allowedOrigins []string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{
		mgr:    mgr,
		logger: logger.With("component", "bridge"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		b.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || pie.Contains(allowedOrigins, origin) || sameHost(r, origin)
		}
	}
	return b
}

// Routes returns the bridge HTTP handler.
func (b *Bridge) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, b.mgr.Snapshot())
	})
	r.Get("/ws", b.handleWebSocket)
	return r
}

// Wait blocks until intents still talking to the backend have finished.
func (b *Bridge) Wait() {
	b.ops.Wait()
}

func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newConnection(ws)
	unsubscribe := b.mgr.Subscribe(c.offerSnapshot)
	defer unsubscribe()
	c.offerSnapshot(b.mgr.Snapshot())

	go c.writeLoop(ctx, b.logger)

	b.logger.Info("page connected", "remote", r.RemoteAddr)

	ws.SetReadLimit(64 << 10)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn("read error", "err", err)
			}
			b.logger.Info("page disconnected", "remote", r.RemoteAddr)
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		if err := b.dispatch(ctx, c, msg); err != nil {
			c.offerError(msg.Type, err)
		}
	}
}

// dispatch applies one intent. Intents that call the backend run in their
// own goroutine so the read loop keeps accepting input.
func (b *Bridge) dispatch(ctx context.Context, c *connection, msg inboundMessage) error {
	// backend calls outlive the page that asked for them
	bg := context.WithoutCancel(ctx)

	switch msg.Type {
	case IntentStart:
		b.async(c, msg.Type, func() error { return b.mgr.StartSession(bg) })
	case IntentSend:
		var data sendData
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		b.async(c, msg.Type, func() error {
			_, err := b.mgr.SendMessage(bg, data.Text)
			return err
		})
	case IntentEnd:
		return b.mgr.EndSession()
	case IntentDraft:
		var data draftData
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		return b.applyDraft(data)
	case IntentSubmit:
		b.async(c, msg.Type, func() error { return b.mgr.SubmitFeedbackAndEndSession(bg) })
	case IntentCancel:
		return b.mgr.CancelFeedback()
	case IntentInstant:
		var data instantData
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		return b.mgr.InstantFeedback(data.Satisfied)
	default:
		return errors.New("unknown intent")
	}
	return nil
}

func (b *Bridge) applyDraft(data draftData) error {
	if data.Satisfied != nil {
		if err := b.mgr.SetSatisfied(*data.Satisfied); err != nil {
			return err
		}
	}
	if data.Rating != nil {
		if err := b.mgr.SetRating(*data.Rating); err != nil {
			return err
		}
	}
	if data.Comment != nil {
		if err := b.mgr.SetComment(*data.Comment); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) async(c *connection, intent string, fn func() error) {
	b.ops.Add(1)
	go func() {
		defer b.ops.Done()
		if err := fn(); err != nil {
			c.offerError(intent, err)
		}
	}()
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.New("invalid intent data")
	}
	return nil
}

func sameHost(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// connection serializes writes to one websocket. Only the newest snapshot
// is kept while the writer is busy; older ones are superseded.
type connection struct {
	ws       *websocket.Conn
	snapshot atomic.Pointer[session.Snapshot]
	wake     chan struct{}
	errs     chan errorData
	sent     uint64
	hasSent  bool
}

func newConnection(ws *websocket.Conn) *connection {
	return &connection{
		ws:   ws,
		wake: make(chan struct{}, 1),
		errs: make(chan errorData, 8),
	}
}

func (c *connection) offerSnapshot(s session.Snapshot) {
	for {
		prev := c.snapshot.Load()
		if prev != nil && prev.Version >= s.Version {
			return
		}
		if c.snapshot.CompareAndSwap(prev, &s) {
			break
		}
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *connection) offerError(intent string, err error) {
	msg := api.UserMessage(err)
	if api.KindOf(err) == api.KindUnknown || msg == "" {
		msg = err.Error()
	}
	select {
	case c.errs <- errorData{Intent: intent, Message: msg}:
	default:
	}
}

func (c *connection) writeLoop(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
			s := c.snapshot.Load()
			if s == nil || (c.hasSent && s.Version <= c.sent) {
				continue
			}
			if err := c.write(outgoingMessage{Type: "snapshot", Data: s}); err != nil {
				logger.Warn("write snapshot failed", "err", err)
				return
			}
			c.sent, c.hasSent = s.Version, true
		case e := <-c.errs:
			if err := c.write(outgoingMessage{Type: "error", Data: e}); err != nil {
				logger.Warn("write error failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) write(msg outgoingMessage) error {
	msg.Timestamp = time.Now().Unix()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}
