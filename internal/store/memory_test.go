package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		got, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte(`[1]`)))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[1]`), got)
	})

	t.Run("ValuesAreCopied", func(t *testing.T) {
		buf := []byte(`abc`)
		require.NoError(t, s.Set(ctx, "copy", buf))
		buf[0] = 'x'

		got, _ := s.Get(ctx, "copy")
		assert.Equal(t, "abc", string(got))
		got[1] = 'y'

		again, _ := s.Get(ctx, "copy")
		assert.Equal(t, "abc", string(again))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte(`[2]`)))
		got, _ := s.Get(ctx, "k")
		assert.Equal(t, []byte(`[2]`), got)
	})

	t.Run("Closed", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
		require.NoError(t, s.Close())
		assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, s.Set(ctx, "k", nil), ErrClosed)
	})
}
