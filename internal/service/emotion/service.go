package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/zhouzirui/faq-assistant/internal/analysis/emotion"
	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

// Config 控制情绪分析服务的行为。
type Config struct {
	Enabled      bool
	HistoryLimit int
}

// Service 使用大模型识别提问者的情绪，并在必要时回退到关键词规则。
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	fallback     func(text string) analysis.Result
	historyLimit int
}

// NewService 创建情绪分析服务。chatModel 为 nil 时只使用关键词规则。
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 4
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		fallback:     analysis.Analyze,
		historyLimit: historyLimit,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(emotionSystemPrompt),
		schema.UserMessage(emotionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled 返回是否使用大模型分类。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Analyze 识别问题中的情绪。模型不可用或输出无法解析时使用关键词规则。
func (s *Service) Analyze(ctx context.Context, question string, history []chat.Turn) analysis.Result {
	if !s.Enabled() {
		return s.fallback(question)
	}

	input := map[string]any{
		"history":  formatHistory(history, s.historyLimit),
		"question": strings.TrimSpace(question),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		slog.Warn("emotion classifier invoke failed, using keywords", "err", err)
		return s.fallback(question)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback(question)
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		slog.Warn("emotion classifier output unreadable, using keywords", "err", err)
		return s.fallback(question)
	}

	result, ok := payload.result()
	if !ok {
		return s.fallback(question)
	}
	return result
}

type classifierPayload struct {
	Emotions  []string `json:"emotions"`
	Intensity int      `json:"intensity"`
}

// result keeps the known labels in the order the model gave them.
func (p classifierPayload) result() (analysis.Result, bool) {
	seen := make(map[analysis.Label]struct{}, len(p.Emotions))
	labels := make([]analysis.Label, 0, len(p.Emotions))
	for _, raw := range p.Emotions {
		label, ok := parseEmotionLabel(raw)
		if !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	if len(labels) == 0 {
		return analysis.Result{}, false
	}
	if labels[0] == analysis.Neutral {
		return analysis.Result{Primary: analysis.Neutral}, true
	}

	labels = removeNeutral(labels)
	return analysis.Result{
		Emotions: labels,
		Primary:  labels[0],
		Score:    clampIntensity(p.Intensity) * 2,
	}, true
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func formatHistory(turns []chat.Turn, limit int) string {
	if len(turns) == 0 {
		return "(no earlier questions)"
	}
	start := max(len(turns)-max(limit, 1), 0)

	lines := make([]string, 0, len(turns)-start)
	for _, turn := range turns[start:] {
		if q := strings.TrimSpace(turn.Question); q != "" {
			lines = append(lines, "User: "+q)
		}
	}
	if len(lines) == 0 {
		return "(no earlier questions)"
	}
	return strings.Join(lines, "\n")
}

var knownLabels = []analysis.Label{
	analysis.Neutral, analysis.Frustrated, analysis.Angry, analysis.Confused,
	analysis.Anxious, analysis.Urgent, analysis.Grateful, analysis.Happy,
}

func parseEmotionLabel(raw string) (analysis.Label, bool) {
	normalized := analysis.Label(strings.ToLower(strings.TrimSpace(raw)))
	for _, label := range knownLabels {
		if label == normalized {
			return label, true
		}
	}
	return "", false
}

func removeNeutral(labels []analysis.Label) []analysis.Label {
	out := labels[:0]
	for _, l := range labels {
		if l != analysis.Neutral {
			out = append(out, l)
		}
	}
	return out
}

func clampIntensity(val int) int {
	switch {
	case val <= 0:
		return 3
	case val > 5:
		return 5
	default:
		return val
	}
}

func labelList() string {
	names := make([]string, 0, len(knownLabels))
	for _, l := range knownLabels {
		names = append(names, string(l))
	}
	sort.Strings(names)
	return strings.Join(names, "/")
}

var emotionSystemPrompt = "You read questions sent to an IT support assistant and judge how the person feels. " +
	"Reply with one JSON object only, with fields emotions (array of labels, strongest first) and intensity (integer 1~5). " +
	"Labels must be taken from " + labelList() + ". Use neutral alone for a calm question. Do not add any other text."

const emotionUserPrompt = "Earlier questions:\n{history}\n\nLatest question:\n{question}"
