package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinicbook/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// OpenPostgres opens a bun handle over the pgx stdlib driver and verifies the connection.
func OpenPostgres(cfg config.PostgresConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return bun.NewDB(sqlDB, pgdialect.New()), nil
}

// PostgresStore keeps values in a key/value table in PostgreSQL.
type PostgresStore struct {
	db    *bun.DB
	table string
}

func NewPostgresStore(db *bun.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: table}
}

// EnsureSchema creates the table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewRaw(`CREATE TABLE IF NOT EXISTS ? (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, bun.Ident(s.table)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("postgres: %w", ErrNilClient)
	}
	var value []byte
	err := s.db.NewRaw("SELECT value FROM ? WHERE key = ?", bun.Ident(s.table), key).Scan(ctx, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from postgres: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return fmt.Errorf("postgres: %w", ErrNilClient)
	}
	_, err := s.db.NewRaw(`INSERT INTO ? (key, value, updated_at) VALUES (?, ?, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		bun.Ident(s.table), key, value).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set %s in postgres: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("postgres: %w", ErrNilClient)
	}
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
