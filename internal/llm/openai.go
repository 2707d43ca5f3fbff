package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"chatrelay/internal/config"
)

const (
	// EmptyAnswer подставляется, если модель вернула пустой текст.
	EmptyAnswer = "(empty)"

	defaultTemperature = 0.4
)

// OpenAIClient клиент OpenAI-совместимого /chat/completions
// (OpenRouter, OpenAI и совместимые).
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewOpenAIClient(cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: defaultTemperature,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Complete выполняет один запрос к модели без повторов.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.baseURL == "" || c.model == "" || c.apiKey == "" {
		return "", ErrNotConfigured
	}

	buf, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(bodyBytes))
	}

	var parsed chatResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("no choices in model response")
	}

	answer := parsed.Choices[0].Message.Content
	if answer == "" {
		answer = EmptyAnswer
	}
	if c.logger != nil {
		c.logger.Debug("completion ok", slog.Int("len", len(answer)))
	}
	return answer, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// snippet обрезает тело ответа для текста ошибки.
func snippet(body []byte) string {
	const limit = 300
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit])
}
