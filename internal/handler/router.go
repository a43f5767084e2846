package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/zhouzirui/faq-assistant/internal/config"
	"github.com/zhouzirui/faq-assistant/internal/handler/analytics"
	"github.com/zhouzirui/faq-assistant/internal/handler/auth"
	"github.com/zhouzirui/faq-assistant/internal/handler/chat"
	"github.com/zhouzirui/faq-assistant/internal/handler/faq"
	faqModel "github.com/zhouzirui/faq-assistant/internal/model/faq"
	accountService "github.com/zhouzirui/faq-assistant/internal/service/account"
	analyticsService "github.com/zhouzirui/faq-assistant/internal/service/analytics"
	chatService "github.com/zhouzirui/faq-assistant/internal/service/chat"
	"github.com/zhouzirui/faq-assistant/pkg/utils"
)

// Deps are the services the backend routes are built on.
type Deps struct {
	Server    config.ServerConfig
	FAQs      faqModel.Store
	Indexer   faq.Indexer
	Chats     *chatService.Service
	Answerer  chat.Answerer
	Accounts  *accountService.Service
	Analytics *analyticsService.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	authHandler := auth.New(deps.Accounts, deps.Server.TokenTTL, deps.Server.SecureCookies)
	chatHandler := chat.New(deps.Chats, deps.Answerer)
	faqHandler := faq.New(deps.FAQs, deps.Indexer)
	analyticsHandler := analytics.New(deps.Analytics)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(authHandler.Identify)

		authHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		faqHandler.RegisterRoutes(api)
		analyticsHandler.RegisterRoutes(api)
	})

	// credentials are only allowed for listed origins
	c := cors.New(cors.Options{
		AllowedOrigins:   deps.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
