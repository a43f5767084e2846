package main

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/samber/do"

	"github.com/zhouzirui/faq-assistant/internal/config"
	"github.com/zhouzirui/faq-assistant/internal/handler"
	authModel "github.com/zhouzirui/faq-assistant/internal/model/auth"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	"github.com/zhouzirui/faq-assistant/internal/service/account"
	"github.com/zhouzirui/faq-assistant/internal/service/ai"
	"github.com/zhouzirui/faq-assistant/internal/service/analytics"
	"github.com/zhouzirui/faq-assistant/internal/service/chat"
	"github.com/zhouzirui/faq-assistant/internal/service/emotion"
)

func provideFAQStore(*do.Injector) (faq.Store, error) {
	return faq.NewMemoryStore(faq.Seed()), nil
}

func provideIndex(di *do.Injector) (*ai.Index, error) {
	ctx := do.MustInvoke[context.Context](di)
	store := do.MustInvoke[faq.Store](di)

	index, err := ai.NewIndex()
	if err != nil {
		return nil, err
	}
	if err := index.Sync(ctx, store.List()); err != nil {
		return nil, err
	}
	slog.Info("FAQ index ready", "entries", index.Len())
	return index, nil
}

// provideChatModel returns nil when no model is configured.
func provideChatModel(di *do.Injector) (model.ChatModel, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	if !cfg.AI.Enabled() {
		slog.Info("Ark credentials not configured, AI answers disabled")
		return nil, nil
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		slog.Warn("failed to create chat model, continuing without it", "err", err)
		return nil, nil
	}
	return chatModel, nil
}

// provideGenerator returns nil without a chat model; answers then come
// from the FAQ alone.
func provideGenerator(di *do.Injector) (ai.Generator, error) {
	ctx := do.MustInvoke[context.Context](di)
	chatModel := do.MustInvoke[model.ChatModel](di)
	if chatModel == nil {
		return nil, nil
	}

	svc, err := ai.NewServiceWithModel(ctx, chatModel)
	if err != nil {
		slog.Warn("failed to initialize AI service, continuing without it", "err", err)
		return nil, nil
	}
	slog.Info("AI service initialized", "model", do.MustInvoke[*config.Config](di).AI.Model)
	return svc, nil
}

func provideEmotion(di *do.Injector) (*emotion.Service, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	svc, err := emotion.NewService(ctx, do.MustInvoke[model.ChatModel](di), emotion.Config{
		Enabled:      cfg.AI.EmotionLLMEnabled,
		HistoryLimit: cfg.AI.EmotionHistoryLimit,
	})
	if err != nil {
		return nil, err
	}
	if svc.Enabled() {
		slog.Info("LLM emotion classifier enabled")
	}
	return svc, nil
}

func provideAnswerer(di *do.Injector) (*ai.Answerer, error) {
	index := do.MustInvoke[*ai.Index](di)
	generator := do.MustInvoke[ai.Generator](di)
	tone := do.MustInvoke[*emotion.Service](di)
	return ai.NewAnswerer(index, generator, ai.DefaultThresholds()).WithToneAnalyzer(tone), nil
}

func provideChatService(*do.Injector) (*chat.Service, error) {
	return chat.NewService(), nil
}

func provideAnalytics(di *do.Injector) (*analytics.Service, error) {
	return analytics.NewService(do.MustInvoke[*chat.Service](di)), nil
}

func provideAccounts(di *do.Injector) (*account.Service, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	accounts := account.NewService(cfg.Server.TokenTTL)
	if cfg.Server.AdminUsername == "" || cfg.Server.AdminPassword == "" {
		return accounts, nil
	}

	_, _, err := accounts.Register(ctx, authModel.Registration{
		Username: cfg.Server.AdminUsername,
		Email:    cfg.Server.AdminUsername + "@example.com",
		Password: cfg.Server.AdminPassword,
		Role:     authModel.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("admin account seeded", "username", cfg.Server.AdminUsername)
	return accounts, nil
}

func provideRouter(di *do.Injector) (*router, error) {
	cfg := do.MustInvoke[*config.Config](di)
	index := do.MustInvoke[*ai.Index](di)

	return &router{Handler: handler.NewRouter(handler.Deps{
		Server:    cfg.Server,
		FAQs:      do.MustInvoke[faq.Store](di),
		Indexer:   index,
		Chats:     do.MustInvoke[*chat.Service](di),
		Answerer:  do.MustInvoke[*ai.Answerer](di),
		Accounts:  do.MustInvoke[*account.Service](di),
		Analytics: do.MustInvoke[*analytics.Service](di),
	})}, nil
}
