package store

import (
	"context"
	"path/filepath"
	"testing"

	"clinicbook/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		opened, err := Open(ctx, &config.Config{Store: config.StoreConfig{Driver: config.DriverMemory}}, &logger)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, opened.Store)
		assert.Nil(t, opened.SQLite)
	})

	t.Run("SQLite", func(t *testing.T) {
		cfg := &config.Config{
			Store:    config.StoreConfig{Driver: config.DriverSQLite},
			Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "data", "clinic.db")},
		}
		opened, err := Open(ctx, cfg, &logger)
		require.NoError(t, err)
		defer opened.Store.Close()

		require.NotNil(t, opened.SQLite)
		assert.Same(t, opened.SQLite, opened.Store)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{
			Store: config.StoreConfig{Driver: config.DriverRedis},
			Redis: config.RedisConfig{Address: mr.Addr()},
		}
		opened, err := Open(ctx, cfg, &logger)
		require.NoError(t, err)
		defer opened.Store.Close()

		require.NoError(t, opened.Store.Set(ctx, "k", []byte("v")))
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("UnreachableWithoutFailover", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := &config.Config{
			Store: config.StoreConfig{Driver: config.DriverRedis},
			Redis: config.RedisConfig{Address: addr},
		}
		_, err := Open(ctx, cfg, &logger)
		assert.Error(t, err)
	})

	t.Run("UnreachableWithFailover", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := &config.Config{
			Store: config.StoreConfig{Driver: config.DriverRedis, Failover: true},
			Redis: config.RedisConfig{Address: addr},
		}
		opened, err := Open(ctx, cfg, &logger)
		require.NoError(t, err)

		failover, ok := opened.Store.(*FailoverStore)
		require.True(t, ok)
		require.NoError(t, failover.Set(ctx, "k", []byte("v")))
		assert.True(t, failover.Degraded())

		got, err := failover.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{Store: config.StoreConfig{Driver: "etcd"}}, &logger)
		assert.Error(t, err)
	})
}
