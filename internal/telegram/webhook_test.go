package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"
	"os"

	"chatrelay/internal/commands"
	"chatrelay/internal/llm"
	"chatrelay/internal/memory"
	"chatrelay/internal/session"
)

type stubBot struct {
	msgs []string
}

func (s *stubBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	s.msgs = append(s.msgs, text)
	return nil
}

func (s *stubBot) GetWebhookInfo(ctx context.Context) (WebhookInfo, error) {
	return WebhookInfo{}, nil
}

type recordingHandler struct {
	inbound []session.Inbound
}

func (h *recordingHandler) Handle(ctx context.Context, in session.Inbound) string {
	h.inbound = append(h.inbound, in)
	return ""
}

func newHandler(t *testing.T, handler MessageHandler, secret string) *WebhookHandler {
	t.Helper()
	return NewWebhookHandler(WebhookDeps{
		Session:       handler,
		Logger:        slog.New(slog.NewTextHandler(os.Stdout, nil)),
		WebhookSecret: secret,
	})
}

func postUpdate(t *testing.T, h http.Handler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/telegram/webhook", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestWebhookPassesMessageWithEntities(t *testing.T) {
	rec := &recordingHandler{}
	handler := newHandler(t, rec, "")

	body := []byte(`{"update_id":1,"message":{"message_id":2,"text":"/reset@mybot now","chat":{"id":77},
		"entities":[{"type":"bot_command","offset":0,"length":12}]}}`)
	rr := postUpdate(t, handler, body)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(rec.inbound) != 1 {
		t.Fatalf("expected one handled message, got %d", len(rec.inbound))
	}
	in := rec.inbound[0]
	if in.ChatID != 77 || in.Text != "/reset@mybot now" {
		t.Fatalf("unexpected inbound: %+v", in)
	}
	if len(in.Entities) != 1 || in.Entities[0] != (commands.Entity{Type: "bot_command", Offset: 0, Length: 12}) {
		t.Fatalf("unexpected entities: %+v", in.Entities)
	}
}

func TestWebhookUsesEditedMessage(t *testing.T) {
	rec := &recordingHandler{}
	handler := newHandler(t, rec, "")

	rr := postUpdate(t, handler, []byte(`{"edited_message":{"text":"fixed typo","chat":{"id":5}}}`))
	if rr.Code != 200 || len(rec.inbound) != 1 || rec.inbound[0].Text != "fixed typo" {
		t.Fatalf("expected edited message handled, got %d %+v", rr.Code, rec.inbound)
	}
}

func TestWebhookIgnoresUpdatesWithoutText(t *testing.T) {
	rec := &recordingHandler{}
	handler := newHandler(t, rec, "")

	for _, body := range []string{
		`{"update_id":1}`,
		`{"message":{"chat":{"id":1}}}`,
		`{"message":{"text":"   ","chat":{"id":1}}}`,
	} {
		rr := postUpdate(t, handler, []byte(body))
		if rr.Code != 200 {
			t.Fatalf("expected 200 for %s, got %d", body, rr.Code)
		}
	}
	if len(rec.inbound) != 0 {
		t.Fatalf("expected nothing handled, got %+v", rec.inbound)
	}
}

func TestWebhookBadJSON(t *testing.T) {
	rec := &recordingHandler{}
	rr := postUpdate(t, newHandler(t, rec, ""), []byte(`{not json`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestWebhookNonPostIsAcknowledged(t *testing.T) {
	rec := &recordingHandler{}
	req := httptest.NewRequest("GET", "/telegram/webhook", nil)
	rr := httptest.NewRecorder()
	newHandler(t, rec, "").ServeHTTP(rr, req)
	if rr.Code != 200 || rr.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestWebhookSecret(t *testing.T) {
	rec := &recordingHandler{}
	handler := newHandler(t, rec, "s3cret")
	body := []byte(`{"message":{"text":"hi","chat":{"id":1}}}`)

	rr := postUpdate(t, handler, body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without secret, got %d", rr.Code)
	}

	req := httptest.NewRequest("POST", "/telegram/webhook", bytes.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != 200 || len(rec.inbound) != 1 {
		t.Fatalf("expected accepted update, got %d %+v", rr.Code, rec.inbound)
	}
}

func TestWebhookEndToEndWithSession(t *testing.T) {
	bot := &stubBot{}
	store := memory.NewEphemeralStore(time.Hour)
	svc := session.NewService(session.Deps{
		Store: memory.NewSafeStore(store, memory.BackendEphemeral, nil, nil),
		Completer: llm.CompleterFunc(func(ctx context.Context, messages []llm.Message) (string, error) {
			return "Hello!", nil
		}),
		Sender:   bot,
		MaxTurns: 8,
	})
	handler := newHandler(t, svc, "")

	update := Update{Message: &Message{Text: "Hi", Chat: Chat{ID: 1}, From: &User{ID: 1}}}
	body, _ := json.Marshal(update)
	rr := postUpdate(t, handler, body)

	if rr.Code != 200 || !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("expected ok ack, got %d %s", rr.Code, rr.Body.String())
	}
	if len(bot.msgs) != 1 || bot.msgs[0] != "Hello!" {
		t.Fatalf("expected bot reply, got %v", bot.msgs)
	}

	history, _ := store.Get(context.Background(), "1")
	if len(history) != 2 {
		t.Fatalf("expected remembered pair, got %v", history)
	}
}
