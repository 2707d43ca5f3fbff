package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// validateTableName проверяет имя таблицы: оно подставляется в SQL как идентификатор.
func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// SQLiteTable таблица памяти в файле SQLite.
type SQLiteTable struct {
	db   *sql.DB
	name string
}

// NewSQLiteTable открывает базу по пути dbPath и создаёт таблицу, если её нет.
func NewSQLiteTable(ctx context.Context, dbPath, tableName string) (*SQLiteTable, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite пишет в один поток: держим одно соединение, чтобы
	// database/sql сериализовал запросы сам.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	t := &SQLiteTable{db: db, name: tableName}
	if err := t.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

func (t *SQLiteTable) initSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		partition_key TEXT NOT NULL,
		row_key TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		last_written_at TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')),
		PRIMARY KEY (partition_key, row_key)
	)`, t.name)
	if _, err := t.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("init schema for %s: %w", t.name, err)
	}
	return nil
}

func (t *SQLiteTable) GetEntity(ctx context.Context, partitionKey, rowKey string) (Entity, error) {
	var (
		messages    string
		lastWritten string
	)
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT messages_json, last_written_at FROM %s WHERE partition_key = ? AND row_key = ?`, t.name),
		partitionKey,
		rowKey,
	).Scan(&messages, &lastWritten)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entity{}, ErrNotFound
		}
		return Entity{}, fmt.Errorf("select entity: %w", err)
	}

	writtenAt, err := time.Parse(time.RFC3339Nano, lastWritten)
	if err != nil {
		return Entity{}, fmt.Errorf("parse last_written_at %q: %w", lastWritten, err)
	}
	return Entity{
		PartitionKey:  partitionKey,
		RowKey:        rowKey,
		MessagesJSON:  messages,
		LastWrittenAt: writtenAt,
	}, nil
}

// UpsertEntity обновляет только messages_json и last_written_at, created_at не трогает.
func (t *SQLiteTable) UpsertEntity(ctx context.Context, entity Entity) error {
	_, err := t.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (partition_key, row_key, messages_json, last_written_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (partition_key, row_key)
		 DO UPDATE SET messages_json = excluded.messages_json, last_written_at = excluded.last_written_at`, t.name),
		entity.PartitionKey,
		entity.RowKey,
		entity.MessagesJSON,
		entity.LastWrittenAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

func (t *SQLiteTable) DeleteEntity(ctx context.Context, partitionKey, rowKey string) error {
	_, err := t.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE partition_key = ? AND row_key = ?`, t.name),
		partitionKey,
		rowKey,
	)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

func (t *SQLiteTable) Close() error {
	return t.db.Close()
}
