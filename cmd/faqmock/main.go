// Command faqmock runs an in-memory FAQ backend that speaks the same HTTP
// API as the production service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do"

	"github.com/zhouzirui/faq-assistant/internal/config"
	"github.com/zhouzirui/faq-assistant/internal/logging"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	"github.com/zhouzirui/faq-assistant/internal/service/ai"
)

type router struct {
	http.Handler
}

func main() {
	logging.Preinit()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using system environment", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	closer := logging.Init(cfg.Log)
	defer closer.Close()

	di := do.New()
	defer func() {
		if err := di.Shutdown(); err != nil {
			slog.Warn("shutdown", "err", err)
		}
	}()

	do.ProvideValue(di, ctx)
	do.ProvideValue(di, cfg)
	do.Provide(di, provideFAQStore)
	do.Provide(di, provideIndex)
	do.Provide(di, provideChatModel)
	do.Provide(di, provideGenerator)
	do.Provide(di, provideEmotion)
	do.Provide(di, provideAnswerer)
	do.Provide(di, provideChatService)
	do.Provide(di, provideAnalytics)
	do.Provide(di, provideAccounts)
	do.Provide(di, provideRouter)

	r, err := do.Invoke[*router](di)
	if err != nil {
		slog.Error("failed to build services", "err", err)
		os.Exit(1)
	}

	slog.Info("FAQ mock backend starting",
		"addr", cfg.Server.Addr,
		"faqs", len(do.MustInvoke[faq.Store](di).List()),
		"indexed", do.MustInvoke[*ai.Index](di).Len(),
		"origins", cfg.Server.AllowedOrigins,
	)

	if err := startServer(ctx, cfg.Server, r); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("FAQ mock backend listening", "addr", serverCfg.Addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
