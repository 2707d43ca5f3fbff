package memory

import (
	"context"
	"log/slog"

	"chatrelay/internal/observability"
)

// Outcome результат записи в память. Ошибка только фиксируется:
// сбой памяти никогда не прерывает диалог.
type Outcome struct {
	Err error
}

// OK сообщает, что операция прошла успешно.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// SafeStore обёртка над Store с политикой «залогировать и проглотить».
// Сигнатуры без error: вызывающий код не может случайно прервать
// обработку сообщения из-за памяти.
type SafeStore struct {
	store   Store
	backend string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSafeStore оборачивает store. backend используется в логах и метриках.
func NewSafeStore(store Store, backend string, logger *slog.Logger, metrics *observability.Metrics) *SafeStore {
	return &SafeStore{
		store:   store,
		backend: backend,
		logger:  logger,
		metrics: metrics,
	}
}

// Backend возвращает имя бэкенда ("ephemeral", "postgres", "sqlite").
func (s *SafeStore) Backend() string {
	return s.backend
}

// Get возвращает историю; при любой ошибке пустую историю.
func (s *SafeStore) Get(ctx context.Context, conversationID string) History {
	history, err := s.store.Get(ctx, conversationID)
	s.metrics.MemoryOp(s.backend, "get", err)
	if err != nil {
		s.warn("memory get failed", conversationID, err)
		return History{}
	}
	if history == nil {
		return History{}
	}
	return history
}

// Put сохраняет историю без системных реплик.
func (s *SafeStore) Put(ctx context.Context, conversationID string, history History) Outcome {
	err := s.store.Put(ctx, conversationID, withoutSystem(history))
	s.metrics.MemoryOp(s.backend, "put", err)
	if err != nil {
		s.warn("memory put failed", conversationID, err)
	}
	return Outcome{Err: err}
}

// Delete удаляет историю диалога.
func (s *SafeStore) Delete(ctx context.Context, conversationID string) Outcome {
	err := s.store.Delete(ctx, conversationID)
	s.metrics.MemoryOp(s.backend, "delete", err)
	if err != nil {
		s.warn("memory delete failed", conversationID, err)
	}
	return Outcome{Err: err}
}

func (s *SafeStore) warn(msg, conversationID string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg,
		slog.String("backend", s.backend),
		slog.String("conversation_id", conversationID),
		slog.String("error", err.Error()))
}
