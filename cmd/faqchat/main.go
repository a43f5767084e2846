// Command faqchat is the terminal client of the FAQ assistant. With -serve
// it also exposes the session to a browser page over a local websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/faq-assistant/internal/api"
	"github.com/zhouzirui/faq-assistant/internal/bridge"
	"github.com/zhouzirui/faq-assistant/internal/config"
	"github.com/zhouzirui/faq-assistant/internal/console"
	"github.com/zhouzirui/faq-assistant/internal/logging"
	"github.com/zhouzirui/faq-assistant/internal/service/admin"
	authService "github.com/zhouzirui/faq-assistant/internal/service/auth"
	"github.com/zhouzirui/faq-assistant/internal/service/session"
)

func main() {
	serve := flag.Bool("serve", false, "expose the session on the local websocket bridge")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	logging.Preinit()

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

	info := cfg.Client.Env.Info()
	slog.Info("environment",
		"mode", info.Mode,
		"production", info.IsProduction,
		"api_url", info.APIURL,
		"backend_url", info.BackendURL,
		"hostname", info.Hostname,
	)

	if *noColor || cfg.Client.NoColor {
		color.NoColor = true
	}

	if err := run(cfg, *serve); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("faqchat stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, serve bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := api.NewFromConfig(cfg.Client)
	if err != nil {
		return err
	}

	auth := authService.NewService(client, nil)
	var username string
	if user, err := auth.Check(ctx); err == nil && user != nil {
		username = user.Username
	}

	mgr := session.NewManager(client, session.WithUsername(username))
	defer mgr.Wait()

	dashboardClient := client.WithTimeout(cfg.Client.DashboardTimeout)

	if serve {
		b := bridge.New(mgr, nil, nil)
		defer b.Wait()

		srv := &http.Server{
			Addr:              cfg.Bridge.Addr,
			Handler:           b.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("bridge listening", "addr", cfg.Bridge.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("bridge server error", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	c := console.New(console.Options{
		In:        os.Stdin,
		Out:       color.Output,
		Manager:   mgr,
		Auth:      auth,
		FAQs:      admin.NewFAQs(client, nil),
		Dashboard: admin.NewDashboard(dashboardClient, nil),
		Analytics: client,
	})
	return c.Run(ctx)
}
