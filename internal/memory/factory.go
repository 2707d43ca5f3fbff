package memory

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Имена бэкендов.
const (
	BackendEphemeral = "ephemeral"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

// Options параметры выбора хранилища.
type Options struct {
	Connection   string        // строка подключения; пустая значит in-memory
	TableName    string        // имя таблицы постоянного хранилища
	SessionTTL   time.Duration // TTL записей in-memory хранилища
	StoreTimeout time.Duration // таймаут одного вызова к постоянному хранилищу
}

// Open выбирает хранилище один раз при старте процесса.
// Постоянное хранилище используется, если задана строка подключения и
// бэкенд поднялся; при ошибке инициализации пишется предупреждение и
// процесс продолжает работу на in-memory хранилище.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, string) {
	conn := strings.TrimSpace(opts.Connection)
	if conn == "" {
		return NewEphemeralStore(opts.SessionTTL), BackendEphemeral
	}

	backend := backendFor(conn)
	var (
		table Table
		err   error
	)
	switch backend {
	case BackendSQLite:
		table, err = NewSQLiteTable(ctx, sqlitePath(conn), opts.TableName)
	default:
		table, err = NewPostgresTable(ctx, conn, opts.TableName)
	}
	if err != nil {
		if logger != nil {
			logger.Warn("persistent memory store unavailable, falling back to in-memory store",
				slog.String("backend", backend),
				slog.String("error", err.Error()))
		}
		return NewEphemeralStore(opts.SessionTTL), BackendEphemeral
	}

	return NewPersistentStore(table, opts.StoreTimeout, logger), backend
}

// backendFor определяет бэкенд по строке подключения.
func backendFor(conn string) string {
	lower := strings.ToLower(conn)
	switch {
	case strings.HasPrefix(lower, "sqlite:"),
		strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"):
		return BackendSQLite
	default:
		return BackendPostgres
	}
}

// sqlitePath убирает префикс sqlite:// или sqlite:, драйвер ждёт путь или file: URI.
func sqlitePath(conn string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:"} {
		if len(conn) >= len(prefix) && strings.EqualFold(conn[:len(prefix)], prefix) {
			return conn[len(prefix):]
		}
	}
	return conn
}
