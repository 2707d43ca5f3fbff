package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PartitionChat единственная партиция: все диалоги лежат в одной
// логической партиции таблицы.
const PartitionChat = "chat"

// Entity строка таблицы памяти.
type Entity struct {
	PartitionKey  string
	RowKey        string
	MessagesJSON  string
	LastWrittenAt time.Time
}

// Table партиционированное key/value хранилище сущностей.
type Table interface {
	// GetEntity возвращает сущность по ключу или ErrNotFound.
	GetEntity(ctx context.Context, partitionKey, rowKey string) (Entity, error)
	// UpsertEntity создаёт сущность или обновляет только MessagesJSON и LastWrittenAt.
	UpsertEntity(ctx context.Context, entity Entity) error
	// DeleteEntity удаляет сущность; отсутствие сущности ошибкой не считается.
	DeleteEntity(ctx context.Context, partitionKey, rowKey string) error
	Close() error
}

// PersistentStore хранит историю в удалённой таблице и переживает рестарты.
// Записи не истекают сами, удаляются только явно (/reset).
type PersistentStore struct {
	table   Table
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewPersistentStore создаёт хранилище поверх таблицы.
// timeout ограничивает каждый сетевой вызов к бэкенду; 0 без ограничения.
func NewPersistentStore(table Table, timeout time.Duration, logger *slog.Logger) *PersistentStore {
	return &PersistentStore{
		table:   table,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Get читает сущность и разбирает поле messagesJson.
// Отсутствующая сущность или битый JSON дают пустую историю.
func (s *PersistentStore) Get(ctx context.Context, conversationID string) (History, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entity, err := s.table.GetEntity(ctx, PartitionChat, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return History{}, nil
		}
		return History{}, fmt.Errorf("get entity: %w", err)
	}
	if entity.MessagesJSON == "" {
		return History{}, nil
	}

	var history History
	if err := json.Unmarshal([]byte(entity.MessagesJSON), &history); err != nil {
		if s.logger != nil {
			s.logger.Warn("memory record is not decodable, treating as empty",
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()))
		}
		return History{}, nil
	}
	if history == nil {
		history = History{}
	}
	return history, nil
}

// Put сериализует историю и выполняет merge-upsert с отметкой времени записи.
func (s *PersistentStore) Put(ctx context.Context, conversationID string, history History) error {
	if history == nil {
		history = History{}
	}
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.table.UpsertEntity(ctx, Entity{
		PartitionKey:  PartitionChat,
		RowKey:        conversationID,
		MessagesJSON:  string(payload),
		LastWrittenAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

// Delete удаляет сущность по ключу. Not found считается успехом.
func (s *PersistentStore) Delete(ctx context.Context, conversationID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.table.DeleteEntity(ctx, PartitionChat, conversationID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

// Close закрывает соединения таблицы.
func (s *PersistentStore) Close() error {
	return s.table.Close()
}

func (s *PersistentStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
