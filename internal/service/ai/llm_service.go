package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/faq-assistant/internal/analysis/emotion"
	"github.com/zhouzirui/faq-assistant/internal/config"
	"github.com/zhouzirui/faq-assistant/internal/model/chat"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

// Generator produces a free-form answer when no FAQ matches well enough.
type Generator interface {
	Generate(ctx context.Context, in GenerateInput) (string, error)
}

// GenerateInput is everything the model sees for one question.
type GenerateInput struct {
	SessionID  string
	Question   string
	History    []chat.Turn
	References []faq.FAQ
	Emotions   []emotion.Label
}

// Service encapsulates LLM-backed answering
type Service struct {
	chatModel model.ChatModel
	template  PromptTemplate
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates a new AI service instance
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel)
}

// NewServiceWithModel builds the answer chain around an existing model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		template:  DefaultPromptTemplate(),
		chain:     runnable,
	}, nil
}

// Generate runs the chain for one question.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (string, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(in))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	slog.Info("Generated AI answer", "session_id", in.SessionID, "length", len(response.Content))
	return response.Content, nil
}

func (s *Service) buildChainInput(in GenerateInput) map[string]any {
	return map[string]any{
		"system":  s.template.BuildSystemPrompt(in.References, in.Emotions),
		"history": buildHistoryMessages(in.History),
		"query":   in.Question,
	}
}

func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	const historyLimit = 5

	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, 2*(len(turns)-startIdx))
	for _, turn := range turns[startIdx:] {
		history = append(history,
			schema.UserMessage(turn.Question),
			schema.AssistantMessage(turn.Answer, nil),
		)
	}
	return history
}
