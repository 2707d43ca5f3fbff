package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"chatrelay/internal/config"
)

// MaxMessageLength лимит длины текста sendMessage.
const MaxMessageLength = 4096

// ErrNoToken токен бота не задан, отправка невозможна.
var ErrNoToken = errors.New("telegram bot token is not set")

type BotClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	GetWebhookInfo(ctx context.Context) (WebhookInfo, error)
}

// WebhookInfo состояние вебхука из getWebhookInfo.
type WebhookInfo struct {
	URL                          string `json:"url"`
	HasCustomCertificate         bool   `json:"has_custom_certificate"`
	PendingUpdateCount           int    `json:"pending_update_count"`
	LastErrorDate                int64  `json:"last_error_date"`
	LastErrorMessage             string `json:"last_error_message"`
	LastSynchronizationErrorDate int64  `json:"last_synchronization_error_date"`
	MaxConnections               int    `json:"max_connections"`
	IPAddress                    string `json:"ip_address"`
}

type HTTPBotClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.TelegramConfig, httpClient *http.Client) *HTTPBotClient {
	return &HTTPBotClient{
		token:      cfg.BotToken,
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		httpClient: httpClient,
	}
}

// SendMessage отправляет текст, обрезая его до MaxMessageLength символов.
func (c *HTTPBotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.token == "" {
		return ErrNoToken
	}

	payload := sendMessageRequest{
		ChatID: chatID,
		Text:   Truncate(text, MaxMessageLength),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()

	var response SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode telegram response (status %d): %w", resp.StatusCode, err)
	}

	if !response.Ok {
		return fmt.Errorf("telegram api error: status %d: %s", resp.StatusCode, response.Description)
	}

	return nil
}

// GetWebhookInfo запрашивает состояние вебхука.
func (c *HTTPBotClient) GetWebhookInfo(ctx context.Context) (WebhookInfo, error) {
	if c.token == "" {
		return WebhookInfo{}, ErrNoToken
	}

	url := fmt.Sprintf("%s/bot%s/getWebhookInfo", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WebhookInfo{}, fmt.Errorf("build telegram request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WebhookInfo{}, fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	var parsed webhookInfoResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return WebhookInfo{}, fmt.Errorf("decode telegram response: %w", err)
	}
	if !parsed.Ok {
		return WebhookInfo{}, fmt.Errorf("telegram api status %d: %s", resp.StatusCode, string(respBody))
	}
	return parsed.Result, nil
}

// Truncate обрезает текст до limit символов, не разрывая руны.
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type webhookInfoResponse struct {
	Ok          bool        `json:"ok"`
	Description string      `json:"description"`
	Result      WebhookInfo `json:"result"`
}
