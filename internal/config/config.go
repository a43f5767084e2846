package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/samber/oops"

	"github.com/zhouzirui/faq-assistant/internal/pkg/validation"
)

// Config 聚合客户端、本地桥接与模拟后端的配置项。
type Config struct {
	Client ClientConfig
	Server ServerConfig
	Bridge BridgeConfig
	AI     AIConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Client: client,
		Server: server,
		Bridge: BridgeConfig{Addr: getEnvOrDefault("FAQ_BRIDGE_ADDR", "127.0.0.1:8090")},
		AI:     ai,
		Log:    loadLogConfig(),
	}

	if err := validation.Validator().Struct(cfg); err != nil {
		return nil, oops.In("config").Wrapf(err, "failed to validate config")
	}

	return cfg, nil
}

// ClientConfig describes how the client reaches the FAQ backend.
type ClientConfig struct {
	Env              Environment
	Timeout          time.Duration `validate:"gt=0"`
	DashboardTimeout time.Duration `validate:"gt=0"`
	NoColor          bool
}

func loadClientConfig() (ClientConfig, error) {
	timeout, err := parseDurationSecondsEnv("FAQ_TIMEOUT", DefaultTimeout)
	if err != nil {
		return ClientConfig{}, err
	}

	dashboardTimeout, err := parseDurationSecondsEnv("FAQ_DASHBOARD_TIMEOUT", DefaultDashboardTimeout)
	if err != nil {
		return ClientConfig{}, err
	}

	noColor, err := parseBoolEnv("FAQ_NO_COLOR", false)
	if err != nil {
		return ClientConfig{}, err
	}

	mode := Mode(strings.ToLower(getEnvOrDefault("FAQ_ENV", string(ModeDevelopment))))
	if mode != ModeDevelopment && mode != ModeProduction {
		return ClientConfig{}, fmt.Errorf("invalid FAQ_ENV value: %q", mode)
	}

	return ClientConfig{
		Env: Environment{
			Hostname:   getEnvOrDefault("FAQ_HOSTNAME", "localhost"),
			Mode:       mode,
			APIURL:     strings.TrimSpace(os.Getenv("FAQ_API_URL")),
			BackendURL: strings.TrimSpace(os.Getenv("FAQ_BACKEND_URL")),
		},
		Timeout:          timeout,
		DashboardTimeout: dashboardTimeout,
		NoColor:          noColor,
	}, nil
}

// ServerConfig 描述模拟后端的 HTTP 服务配置。
type ServerConfig struct {
	Addr           string `validate:"required"`
	AllowedOrigins []string
	AdminUsername  string
	AdminPassword  string        `validate:"omitempty,min=6"`
	TokenTTL       time.Duration `validate:"gt=0"`
	SecureCookies  bool
}

// loadServerConfig 解析服务器监听地址与登录相关配置。
func loadServerConfig() (ServerConfig, error) {
	addr, err := parseListenAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}

	ttl, err := parseDurationSecondsEnv("FAQ_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return ServerConfig{}, err
	}

	secure, err := parseBoolEnv("FAQ_SECURE_COOKIES", false)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Addr:           addr,
		AllowedOrigins: parseListEnv("FAQ_CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		AdminUsername:  getEnvOrDefault("FAQ_ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnvOrDefault("FAQ_ADMIN_PASSWORD", "admin123"),
		TokenTTL:       ttl,
		SecureCookies:  secure,
	}, nil
}

func parseListenAddr(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// BridgeConfig describes the local websocket bridge started by faqchat -serve.
type BridgeConfig struct {
	Addr string `validate:"required"`
}

// LogConfig controls the slog handlers installed by the logging package.
type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
	File  string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level: strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		File:  strings.TrimSpace(os.Getenv("LOG_FILE")),
	}
}

// AIConfig 描述模拟后端可选的大模型配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int

	EmotionLLMEnabled   bool
	EmotionHistoryLimit int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing, provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	emotionEnabled, err := parseBoolEnv("AI_EMOTION_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	emotionHistory := 4
	if override, err := parseOptionalIntEnv("AI_EMOTION_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		emotionHistory = *override
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,

		EmotionLLMEnabled:   emotionEnabled,
		EmotionHistoryLimit: emotionHistory,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationSecondsEnv accepts either a bare number of seconds or a Go duration string.
func parseDurationSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
