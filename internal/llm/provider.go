package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"chatrelay/internal/config"
)

// Провайдеры completion.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// EchoCompleter отвечает текстом последней реплики пользователя.
// Нужен для проверки вебхука без модели.
type EchoCompleter struct{}

func (EchoCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return "(echo) " + messages[i].Content, nil
		}
	}
	return "(echo)", nil
}

// unconfigured провайдер без настроек: каждый вызов завершается ErrNotConfigured,
// пользователь получает сообщение об ошибке вместо тишины.
type unconfigured struct{}

func (unconfigured) Complete(ctx context.Context, messages []Message) (string, error) {
	return "", ErrNotConfigured
}

// NewCompleter собирает провайдера по конфигурации.
func NewCompleter(cfg config.LLMConfig, echoOnly bool, httpClient *http.Client, logger *slog.Logger) Completer {
	if echoOnly {
		logger.Info("echo mode enabled, language model is not called")
		return EchoCompleter{}
	}
	if cfg.APIKey == "" || cfg.Model == "" {
		logger.Error("language model config is incomplete",
			slog.String("provider", cfg.Provider),
			slog.String("model", cfg.Model),
			slog.Bool("key_set", cfg.APIKey != ""))
		return unconfigured{}
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, httpClient)
	default:
		return NewOpenAIClient(cfg, httpClient, logger)
	}
}
