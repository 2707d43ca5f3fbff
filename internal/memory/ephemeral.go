package memory

import (
	"context"
	"sync"
	"time"
)

// ephemeralEntry содержит историю диалога и момент её истечения.
type ephemeralEntry struct {
	history   History
	expiresAt time.Time
}

// EphemeralStore потокобезопасное in-memory хранилище диалогов с TTL.
//
// Память живёт в пределах одного процесса: разные инстансы сервиса ничего
// друг о друге не знают, поэтому поведение согласовано только при одном
// инстансе или sticky-маршрутизации по чату.
type EphemeralStore struct {
	mu      sync.Mutex
	entries map[string]ephemeralEntry
	ttl     time.Duration
	now     func() time.Time
}

// EphemeralOption настраивает EphemeralStore.
type EphemeralOption func(*EphemeralStore)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) EphemeralOption {
	return func(s *EphemeralStore) {
		s.now = now
	}
}

// NewEphemeralStore создаёт in-memory хранилище.
// ttl определяет, сколько живёт запись после последней записи.
// Если ttl <= 0, записи никогда не истекают.
func NewEphemeralStore(ttl time.Duration, opts ...EphemeralOption) *EphemeralStore {
	s := &EphemeralStore{
		entries: make(map[string]ephemeralEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get возвращает историю диалога.
// Ленивая очистка: истёкшая запись удаляется и возвращается пустая история.
func (s *EphemeralStore) Get(ctx context.Context, conversationID string) (History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[conversationID]
	if !ok {
		return History{}, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.entries, conversationID)
		return History{}, nil
	}

	// Возвращаем копию, чтобы избежать изменений снаружи
	out := make(History, len(entry.history))
	copy(out, entry.history)
	return out, nil
}

// Put заменяет историю диалога и продлевает срок жизни записи.
func (s *EphemeralStore) Put(ctx context.Context, conversationID string, history History) error {
	stored := make(History, len(history))
	copy(stored, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[conversationID] = ephemeralEntry{
		history:   stored,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Delete удаляет диалог.
func (s *EphemeralStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, conversationID)
	return nil
}

// Len возвращает число записей, включая ещё не вычищенные истёкшие.
func (s *EphemeralStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
