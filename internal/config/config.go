package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSystemPrompt = "You are a helpful assistant."
	defaultTableName    = "chatmemory"
)

type Config struct {
	HTTPAddr         string
	LogLevel         string
	RequestTimeout   time.Duration
	SystemPrompt     string
	EchoOnly         bool
	CommandsFile     string
	MetricsNamespace string
	Memory           MemoryConfig
	LLM              LLMConfig
	Telegram         TelegramConfig
}

// MemoryConfig настройки краткосрочной памяти диалогов.
type MemoryConfig struct {
	SessionTTL      time.Duration // срок жизни записи in-memory хранилища
	MaxHistoryTurns int           // размер окна истории в репликах
	Connection      string        // строка подключения постоянного хранилища
	TableName       string
	StoreTimeout    time.Duration
}

type LLMConfig struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

type TelegramConfig struct {
	BotToken      string
	APIBaseURL    string
	WebhookSecret string
}

func Load() (Config, error) {
	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.SystemPrompt = getEnv("SYSTEM_PROMPT", defaultSystemPrompt)
	cfg.CommandsFile = getEnv("COMMANDS_FILE", "")
	cfg.MetricsNamespace = getEnv("METRICS_NAMESPACE", "chatrelay")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	echoOnly, err := parseBoolDefault(getEnv("ECHO_ONLY", ""), false)
	if err != nil {
		return Config{}, fmt.Errorf("parse ECHO_ONLY: %w", err)
	}
	cfg.EchoOnly = echoOnly

	ttlSeconds, err := parseIntDefault(getEnv("SESSION_TTL_SECONDS", ""), 86400)
	if err != nil {
		return Config{}, fmt.Errorf("parse SESSION_TTL_SECONDS: %w", err)
	}
	maxTurns, err := parseIntDefault(getEnv("MAX_HISTORY_TURNS", ""), 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_HISTORY_TURNS: %w", err)
	}
	storeTimeout, err := parseDuration(getEnv("STORE_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STORE_TIMEOUT: %w", err)
	}
	cfg.Memory = MemoryConfig{
		SessionTTL:      time.Duration(ttlSeconds) * time.Second,
		MaxHistoryTurns: maxTurns,
		Connection:      getEnv("PERSISTENT_STORE_CONNECTION", ""),
		TableName:       getEnv("PERSISTENT_STORE_TABLE", defaultTableName),
		StoreTimeout:    storeTimeout,
	}

	maxTokens, err := parseIntDefault(getEnv("LLM_MAX_TOKENS", ""), 1024)
	if err != nil {
		return Config{}, fmt.Errorf("parse LLM_MAX_TOKENS: %w", err)
	}
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	// Для anthropic пустой адрес означает адрес SDK по умолчанию.
	defaultBaseURL := "https://openrouter.ai/api/v1"
	if provider == "anthropic" {
		defaultBaseURL = ""
	}
	cfg.LLM = LLMConfig{
		Provider:  provider,
		APIKey:    getEnv("LLM_API_KEY", ""),
		BaseURL:   getEnv("LLM_BASE_URL", defaultBaseURL),
		Model:     getEnv("LLM_MODEL", ""),
		MaxTokens: maxTokens,
	}

	cfg.Telegram = TelegramConfig{
		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		APIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

// parseBoolDefault parses optional boolean with default value.
func parseBoolDefault(value string, def bool) (bool, error) {
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

// parseIntDefault parses optional integer with default value.
func parseIntDefault(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}
