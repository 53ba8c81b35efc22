package store

import (
	"context"
	"fmt"

	"clinicbook/internal/config"
	"clinicbook/internal/domain"

	"github.com/rs/zerolog"
)

// Opened is the store selected by configuration. SQLite is set only for the
// sqlite driver so callers can attach the backup service to it.
type Opened struct {
	Store  domain.Store
	SQLite *SQLiteStore
}

// Open builds the store named by cfg.Store.Driver and verifies it answers a ping.
// With failover enabled the primary is wrapped with an in-memory fallback and a
// failed initial ping is logged instead of returned.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Opened, error) {
	var (
		primary domain.Store
		opened  Opened
	)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		return &Opened{Store: NewMemoryStore()}, nil
	case config.DriverRedis:
		primary = NewRedisStore(NewRedisClient(cfg.Redis))
	case config.DriverSQLite:
		st, err := NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		opened.SQLite = st
		primary = st
	case config.DriverPostgres:
		db, err := OpenPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pg := NewPostgresStore(db, cfg.Database.Postgres.Table)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		primary = pg
	case config.DriverDynamoDB:
		client, err := NewDynamoClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		primary = NewDynamoStore(client, cfg.DynamoDB.Table)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	pingErr := primary.Ping(ctx)
	if !cfg.Store.Failover {
		if pingErr != nil {
			_ = primary.Close()
			return nil, fmt.Errorf("%s ping: %w", cfg.Store.Driver, pingErr)
		}
		opened.Store = primary
		return &opened, nil
	}

	if pingErr != nil {
		logger.Warn().Err(pingErr).Str("driver", cfg.Store.Driver).Msg("Primary store unreachable, starting on fallback")
	}
	opened.Store = NewFailoverStore(primary, NewMemoryStore(), logger)
	return &opened, nil
}
