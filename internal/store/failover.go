package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"clinicbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStore serves from primary and mirrors every successful read and write into
// fallback, so that when primary fails the fallback answers with the last known value.
// Keys written while primary is unavailable are replayed into it before primary
// serves them again.
type FailoverStore struct {
	primary  domain.Store
	fallback domain.Store
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time

	// syncMu guards dirty: keys whose latest value lives only in fallback
	syncMu sync.Mutex
	dirty  map[string]struct{}
}

func NewFailoverStore(primary, fallback domain.Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
		dirty:    make(map[string]struct{}),
	}
}

// usePrimary reports whether primary should be tried: it is up, or it is time for a recovery attempt.
func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.lastCheck) > recoveryInterval
}

func (s *FailoverStore) markDown(err error) {
	if !s.isDown.Load() {
		s.logger.Error().Err(err).Msg("Primary store failed, falling back to memory")
	}
	s.isDown.Store(true)
	s.mu.Lock()
	s.lastCheck = s.now()
	s.mu.Unlock()
}

func (s *FailoverStore) markUp() {
	if s.isDown.Swap(false) {
		s.logger.Info().Msg("Primary store recovered")
	}
}

// replay writes every dirty key from fallback into primary. It stops at the first
// failure and leaves the remaining keys dirty.
func (s *FailoverStore) replay(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	for key := range s.dirty {
		val, err := s.fallback.Get(ctx, key)
		if err != nil {
			return err
		}
		if val != nil {
			if err := s.primary.Set(ctx, key, val); err != nil {
				return err
			}
		}
		delete(s.dirty, key)
		s.logger.Info().Str("key", key).Msg("Replayed fallback write into primary store")
	}
	return nil
}

func (s *FailoverStore) markDirty(key string) {
	s.syncMu.Lock()
	s.dirty[key] = struct{}{}
	s.syncMu.Unlock()
}

// Pending reports how many keys still wait to be replayed into primary.
func (s *FailoverStore) Pending() int {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return len(s.dirty)
}

func (s *FailoverStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.usePrimary() {
		err := s.replay(ctx)
		if err == nil {
			var val []byte
			if val, err = s.primary.Get(ctx, key); err == nil {
				s.markUp()
				if val != nil {
					_ = s.fallback.Set(ctx, key, val)
				}
				return val, nil
			}
		}
		s.markDown(err)
	}

	return s.fallback.Get(ctx, key)
}

func (s *FailoverStore) Set(ctx context.Context, key string, value []byte) error {
	if s.usePrimary() {
		err := s.replay(ctx)
		if err == nil {
			if err = s.primary.Set(ctx, key, value); err == nil {
				s.markUp()
				_ = s.fallback.Set(ctx, key, value)
				return nil
			}
		}
		s.markDown(err)
	}

	if err := s.fallback.Set(ctx, key, value); err != nil {
		return err
	}
	s.markDirty(key)
	return nil
}

// Ping reports the primary's health; the store stays usable through the fallback either way.
func (s *FailoverStore) Ping(ctx context.Context) error {
	return s.primary.Ping(ctx)
}

// Degraded reports whether requests are currently served by the fallback.
func (s *FailoverStore) Degraded() bool {
	return s.isDown.Load()
}

func (s *FailoverStore) Close() error {
	return errors.Join(s.primary.Close(), s.fallback.Close())
}
