package store

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func TestFailoverStore(t *testing.T) {
	primary := new(mockStore)
	fallback := NewMemoryStore()
	logger := zerolog.New(io.Discard)
	s := NewFailoverStore(primary, fallback, &logger)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	t.Run("PrimarySuccessMirrorsToFallback", func(t *testing.T) {
		primary.On("Set", ctx, "k", []byte("v1")).Return(nil).Once()
		require.NoError(t, s.Set(ctx, "k", []byte("v1")))

		got, err := fallback.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
		assert.False(t, s.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryGetFailServesLastKnownValue", func(t *testing.T) {
		primary.On("Get", ctx, "k").Return(nil, errors.New("fail")).Once()

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
		assert.True(t, s.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("WhileDownPrimaryIsSkipped", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte("v2")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
		primary.AssertNotCalled(t, "Set", ctx, "k", []byte("v2"))
	})

	t.Run("RecoveryReplaysOutageWrite", func(t *testing.T) {
		assert.Equal(t, 1, s.Pending())
		now = now.Add(2 * time.Minute)
		primary.On("Set", ctx, "k", []byte("v2")).Return(nil).Once()
		primary.On("Get", ctx, "k").Return([]byte("v2"), nil).Once()

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
		assert.False(t, s.Degraded())
		assert.Zero(t, s.Pending())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		s.isDown.Store(true)
		now = now.Add(2 * time.Minute)
		primary.On("Set", ctx, "k", []byte("v4")).Return(errors.New("still fail")).Once()

		require.NoError(t, s.Set(ctx, "k", []byte("v4")))
		assert.True(t, s.Degraded())

		got, _ := fallback.Get(ctx, "k")
		assert.Equal(t, []byte("v4"), got)
		assert.Equal(t, 1, s.Pending())
		primary.AssertExpectations(t)
	})

	t.Run("PingReportsPrimary", func(t *testing.T) {
		primary.On("Ping", ctx).Return(errors.New("down")).Once()
		assert.Error(t, s.Ping(ctx))
		primary.On("Ping", ctx).Return(nil).Once()
		assert.NoError(t, s.Ping(ctx))
	})

	t.Run("Close", func(t *testing.T) {
		primary.On("Close").Return(nil).Once()
		assert.NoError(t, s.Close())
		primary.AssertExpectations(t)
	})
}

// flakyStore is a MemoryStore that can be switched off.
type flakyStore struct {
	*MemoryStore
	down atomic.Bool
}

var errFlakyDown = errors.New("connection refused")

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.down.Load() {
		return nil, errFlakyDown
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.down.Load() {
		return errFlakyDown
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func TestFailoverStore_OutageWritesSurviveRecovery(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	primary := &flakyStore{MemoryStore: NewMemoryStore()}
	s := NewFailoverStore(primary, NewMemoryStore(), &logger)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "bookings", []byte(`["A"]`)))
	require.NoError(t, s.Set(ctx, "admin", []byte(`{"hash":"h1"}`)))

	primary.down.Store(true)
	require.NoError(t, s.Set(ctx, "bookings", []byte(`["A","B"]`)))
	require.NoError(t, s.Set(ctx, "admin", []byte(`{"hash":"h2"}`)))
	assert.True(t, s.Degraded())
	assert.Equal(t, 2, s.Pending())

	got, err := s.Get(ctx, "bookings")
	require.NoError(t, err)
	assert.Equal(t, `["A","B"]`, string(got))

	t.Run("StillDownKeepsPending", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		got, err := s.Get(ctx, "bookings")
		require.NoError(t, err)
		assert.Equal(t, `["A","B"]`, string(got))
		assert.Equal(t, 2, s.Pending())
	})

	t.Run("RecoveredPrimaryGetsOutageWrites", func(t *testing.T) {
		primary.down.Store(false)
		now = now.Add(2 * time.Minute)

		got, err := s.Get(ctx, "bookings")
		require.NoError(t, err)
		assert.Equal(t, `["A","B"]`, string(got))
		assert.False(t, s.Degraded())
		assert.Zero(t, s.Pending())

		stored, err := primary.MemoryStore.Get(ctx, "bookings")
		require.NoError(t, err)
		assert.Equal(t, `["A","B"]`, string(stored))

		admin, err := primary.MemoryStore.Get(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, `{"hash":"h2"}`, string(admin))
	})
}
