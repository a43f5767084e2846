package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authHandler "github.com/zhouzirui/faq-assistant/internal/handler/auth"
	"github.com/zhouzirui/faq-assistant/internal/model/chat"
	chatService "github.com/zhouzirui/faq-assistant/internal/service/chat"
	"github.com/zhouzirui/faq-assistant/pkg/utils"
)

// Answerer produces the reply for one question.
type Answerer interface {
	Answer(ctx context.Context, sessionID, question string, history []chat.Turn) chat.ChatResponse
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	answerer Answerer
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, answerer Answerer) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		answerer: answerer,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/start", h.handleStartSession)
	r.Post("/session/end", h.handleEndSession)
	r.Post("/chat", h.handleChat)
	r.Post("/feedback", h.handleInstantFeedback)
}

// handleStartSession 创建会话
func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var userID string
	if user, ok := authHandler.UserFrom(r.Context()); ok {
		userID = user.ID
	}

	session, err := h.chatSvc.StartSession(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("session started", "session_id", session.ID, "user_id", userID)
	utils.RespondJSON(w, http.StatusOK, chat.StartSessionResponse{Success: true, SessionID: session.ID})
}

// handleEndSession 结束会话并保存评分
func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var payload chat.EndSessionRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	if strings.TrimSpace(payload.SessionID) == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.chatSvc.EndSession(r.Context(), payload); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	slog.Info("session ended", "session_id", payload.SessionID, "rating", payload.Rating, "satisfied", payload.Satisfied)
	utils.RespondJSON(w, http.StatusOK, chat.EndSessionResponse{Success: true})
}

// handleChat 回答问题
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.ChatRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	question := strings.TrimSpace(payload.Question)
	if question == "" {
		utils.RespondError(w, http.StatusBadRequest, chatService.ErrQuestionRequired.Error())
		return
	}

	history, err := h.chatSvc.History(r.Context(), payload.SessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	resp := h.answerer.Answer(r.Context(), payload.SessionID, question, history)

	turn := chat.Turn{Question: question, Answer: resp.Answer, Source: resp.Source}
	if err := h.chatSvc.RecordTurn(r.Context(), payload.SessionID, turn); err != nil {
		// the session may have ended while the answer was being produced
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleInstantFeedback 记录即时反馈
func (h *Handler) handleInstantFeedback(w http.ResponseWriter, r *http.Request) {
	var payload chat.InstantFeedbackRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	h.chatSvc.RecordInstantFeedback(r.Context(), payload.Satisfied)
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrSessionEnded):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
