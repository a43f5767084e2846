package faq

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/go-chi/chi/v5"

	authHandler "github.com/zhouzirui/faq-assistant/internal/handler/auth"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	"github.com/zhouzirui/faq-assistant/internal/pkg/validation"
	"github.com/zhouzirui/faq-assistant/pkg/utils"
)

// Indexer keeps the answer index in step with the store.
type Indexer interface {
	Sync(ctx context.Context, items []faq.FAQ) error
}

// Handler FAQ 管理的HTTP处理器
type Handler struct {
	store   faq.Store
	indexer Indexer
}

// New 创建 FAQ 处理器
func New(store faq.Store, indexer Indexer) *Handler {
	return &Handler{store: store, indexer: indexer}
}

// RegisterRoutes 注册 FAQ 路由；写操作需要管理员登录
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/faqs", h.handleList)
	r.Get("/faqs/search", h.handleSearch)

	r.Group(func(admin chi.Router) {
		admin.Use(authHandler.RequireAdmin)
		admin.Post("/faqs", h.handleCreate)
		admin.Put("/faqs/{faqID}", h.handleUpdate)
		admin.Delete("/faqs/{faqID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	items := h.store.List()
	if q != "" {
		items = pie.Filter(items, func(item faq.FAQ) bool {
			return strings.Contains(strings.ToLower(item.Question), q) ||
				strings.Contains(strings.ToLower(item.Answer), q)
		})
	}
	if items == nil {
		items = []faq.FAQ{}
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload faq.Input
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if err := validation.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created := h.store.Create(payload)
	h.reindex(r.Context())
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload faq.Input
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if err := validation.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.Update(chi.URLParam(r, "faqID"), payload)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	h.reindex(r.Context())
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "faqID")); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	h.reindex(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) reindex(ctx context.Context) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.Sync(ctx, h.store.List()); err != nil {
		slog.Error("failed to reindex FAQs", "err", err)
	}
}

func statusFor(err error) int {
	if errors.Is(err, faq.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
