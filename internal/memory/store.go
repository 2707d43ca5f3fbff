package memory

import (
	"context"
	"errors"
)

// ErrNotFound возвращают табличные бэкенды, когда записи нет.
// Store наружу его не отдаёт: отсутствие записи означает пустую историю.
var ErrNotFound = errors.New("memory record not found")

// Store интерфейс хранилища краткосрочной памяти диалогов.
// Ключ — идентификатор диалога (ConversationID).
type Store interface {
	// Get возвращает историю диалога. Если записи нет или она истекла,
	// возвращается пустая история и nil.
	Get(ctx context.Context, conversationID string) (History, error)

	// Put полностью заменяет историю диалога. Повторный вызов с теми же
	// данными даёт тот же результат.
	Put(ctx context.Context, conversationID string, history History) error

	// Delete удаляет запись. Отсутствие записи ошибкой не считается.
	Delete(ctx context.Context, conversationID string) error
}

// Closer реализуют хранилища, держащие внешние соединения.
type Closer interface {
	Close() error
}
