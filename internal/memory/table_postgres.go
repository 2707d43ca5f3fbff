package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTable таблица памяти в PostgreSQL.
type PostgresTable struct {
	pool *pgxpool.Pool
	name string
}

// NewPostgresTable подключается к базе и создаёт таблицу, если её нет.
func NewPostgresTable(ctx context.Context, databaseURL, tableName string) (*PostgresTable, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	t := &PostgresTable{pool: pool, name: tableName}
	if err := t.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return t, nil
}

func (t *PostgresTable) initSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		partition_key TEXT NOT NULL,
		row_key TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		last_written_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (partition_key, row_key)
	);`, t.name)
	if _, err := t.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init schema for %s: %w", t.name, err)
	}
	return nil
}

func (t *PostgresTable) GetEntity(ctx context.Context, partitionKey, rowKey string) (Entity, error) {
	entity := Entity{PartitionKey: partitionKey, RowKey: rowKey}
	err := t.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT messages_json, last_written_at FROM %s WHERE partition_key=$1 AND row_key=$2`, t.name),
		partitionKey,
		rowKey,
	).Scan(&entity.MessagesJSON, &entity.LastWrittenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entity{}, ErrNotFound
		}
		return Entity{}, fmt.Errorf("select entity: %w", err)
	}
	return entity, nil
}

// UpsertEntity обновляет только messages_json и last_written_at, created_at не трогает.
func (t *PostgresTable) UpsertEntity(ctx context.Context, entity Entity) error {
	_, err := t.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (partition_key, row_key, messages_json, last_written_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (partition_key, row_key)
		 DO UPDATE SET messages_json = EXCLUDED.messages_json, last_written_at = EXCLUDED.last_written_at`, t.name),
		entity.PartitionKey,
		entity.RowKey,
		entity.MessagesJSON,
		entity.LastWrittenAt,
	)
	if err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

func (t *PostgresTable) DeleteEntity(ctx context.Context, partitionKey, rowKey string) error {
	_, err := t.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE partition_key=$1 AND row_key=$2`, t.name),
		partitionKey,
		rowKey,
	)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

func (t *PostgresTable) Close() error {
	t.pool.Close()
	return nil
}
