package analytics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	analyticsService "github.com/zhouzirui/faq-assistant/internal/service/analytics"
	"github.com/zhouzirui/faq-assistant/pkg/utils"
)

const maxWindow = 90

// Handler 统计数据的HTTP处理器
type Handler struct {
	svc *analyticsService.Service
}

// New 创建统计处理器
func New(svc *analyticsService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册统计路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/top-questions", h.handleTopQuestions)
	r.Get("/daily-question-counts", h.handleDailyCounts)
	r.Get("/csat", h.handleCSAT)
}

func (h *Handler) handleTopQuestions(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit", analyticsService.DefaultTopLimit)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.svc.TopQuestions(limit))
}

func (h *Handler) handleDailyCounts(w http.ResponseWriter, r *http.Request) {
	days, ok := intQuery(w, r, "days", analyticsService.DefaultDays)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.svc.DailyQuestionCounts(days))
}

func (h *Handler) handleCSAT(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, faq.CSAT{CSAT: h.svc.CSAT()})
}

// intQuery reads a positive integer query parameter capped at maxWindow.
func intQuery(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		utils.RespondError(w, http.StatusBadRequest, key+" must be a positive integer")
		return 0, false
	}
	return min(val, maxWindow), true
}
