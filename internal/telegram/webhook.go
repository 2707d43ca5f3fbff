package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"chatrelay/internal/commands"
	"chatrelay/internal/httpserver"
	"chatrelay/internal/session"
)

// MessageHandler обрабатывает разобранное сообщение и сам отправляет ответ.
type MessageHandler interface {
	Handle(ctx context.Context, in session.Inbound) string
}

type WebhookDeps struct {
	Session       MessageHandler
	Logger        *slog.Logger
	WebhookSecret string
}

// WebhookHandler граница с Telegram: разбирает update и всегда отвечает 200,
// кроме неразборчивого тела и неверного секрета. Иначе Telegram будет
// повторять доставку.
type WebhookHandler struct {
	session       MessageHandler
	logger        *slog.Logger
	webhookSecret string
}

func NewWebhookHandler(deps WebhookDeps) *WebhookHandler {
	return &WebhookHandler{
		session:       deps.Session,
		logger:        deps.Logger,
		webhookSecret: deps.WebhookSecret,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		if secret := r.Header.Get("X-Telegram-Bot-Api-Secret-Token"); secret != h.webhookSecret {
			httpserver.WriteJSONError(w, http.StatusForbidden, "forbidden", "invalid webhook secret")
			return
		}
	}

	if r.Method != http.MethodPost {
		h.logger.Info("non-POST request, ignoring", slog.String("method", r.Method))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse update")
		return
	}

	msg := upd.IncomingMessage()
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		h.logger.Info("no text message in update", slog.Int64("update_id", upd.UpdateID))
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info("incoming message",
		slog.Int64("chat_id", msg.Chat.ID),
		slog.String("text", Truncate(msg.Text, 120)),
		slog.String("request_id", r.Header.Get("X-Request-ID")))

	h.session.Handle(r.Context(), session.Inbound{
		ChatID:   msg.Chat.ID,
		Text:     msg.Text,
		Entities: toCommandEntities(msg.Entities),
	})

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func toCommandEntities(entities []MessageEntity) []commands.Entity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]commands.Entity, 0, len(entities))
	for _, e := range entities {
		out = append(out, commands.Entity{Type: e.Type, Offset: e.Offset, Length: e.Length})
	}
	return out
}
