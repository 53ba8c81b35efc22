package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "clinic.db")
	st, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		got, err := st.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Upsert", func(t *testing.T) {
		require.NoError(t, st.Set(ctx, "bookings", []byte(`[]`)))
		require.NoError(t, st.Set(ctx, "bookings", []byte(`[{"id":"BK-1"}]`)))

		got, err := st.Get(ctx, "bookings")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"BK-1"}]`, string(got))

		var count int
		require.NoError(t, st.db.QueryRow(`SELECT COUNT(*) FROM kv_store`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, st.Ping(ctx))
		assert.Equal(t, path, st.Path())
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.db")
	ctx := context.Background()

	st, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "k", []byte("v")))
	require.NoError(t, st.Close())

	st, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLiteStore_Closed(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "clinic.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = st.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, st.Set(context.Background(), "k", []byte("v")))
}
