package llm

import (
	"context"
	"errors"
)

// Роли сообщений запроса.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotConfigured возвращает провайдер без ключа или адреса.
var ErrNotConfigured = errors.New("language model provider is not configured")

// Message одно сообщение запроса к модели.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer минимальный интерфейс провайдера completion.
// messages: системный промпт, история и новая реплика пользователя.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// CompleterFunc адаптер функции к Completer.
type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}
