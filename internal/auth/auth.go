// Package auth gates administrative operations behind a single admin password and
// short-lived in-memory sessions.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", models.MinPasswordLength)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminExists        = errors.New("admin account already exists")
	ErrNoAdmin            = errors.New("admin account is not set up")
)

// credential is the value stored under the admin key.
type credential struct {
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCost sets the bcrypt cost used for new hashes.
func WithCost(cost int) Option {
	return func(m *Manager) { m.cost = cost }
}

type Manager struct {
	store  domain.Store
	key    string
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]time.Time
}

var _ domain.Authenticator = (*Manager)(nil)

func NewManager(st domain.Store, key string, ttl time.Duration, logger *zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		key:      key,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) load(ctx context.Context) (*credential, error) {
	raw, err := m.store.Get(ctx, m.key)
	if err != nil {
		return nil, fmt.Errorf("load admin credential: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var c credential
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode admin credential: %w", err)
	}
	return &c, nil
}

func (m *Manager) save(ctx context.Context, password string) error {
	if len(password) < models.MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	raw, err := json.Marshal(credential{Hash: string(hash), UpdatedAt: m.now().UTC()})
	if err != nil {
		return err
	}
	return m.store.Set(ctx, m.key, raw)
}

func (m *Manager) AdminExists(ctx context.Context) (bool, error) {
	c, err := m.load(ctx)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// Setup creates the admin credential. It refuses to overwrite an existing one.
func (m *Manager) Setup(ctx context.Context, password string) error {
	exists, err := m.AdminExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrAdminExists
	}
	if err := m.save(ctx, password); err != nil {
		return err
	}
	m.logger.Info().Msg("Admin account created")
	return nil
}

func (m *Manager) verify(ctx context.Context, password string) error {
	c, err := m.load(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNoAdmin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (m *Manager) Login(ctx context.Context, password string) (models.Session, error) {
	if err := m.verify(ctx, password); err != nil {
		m.logger.Warn().Err(err).Msg("Admin login rejected")
		return models.Session{}, err
	}

	s := models.Session{Token: uuid.NewString(), ExpiresAt: m.now().Add(m.ttl)}

	m.mu.Lock()
	m.pruneLocked()
	m.sessions[s.Token] = s.ExpiresAt
	m.mu.Unlock()

	m.logger.Info().Time("expires_at", s.ExpiresAt).Msg("Admin logged in")
	return s, nil
}

// Authenticate reports whether token names a live session. Expired sessions are dropped.
func (m *Manager) Authenticate(token string) bool {
	if token == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	expires, ok := m.sessions[token]
	if !ok {
		return false
	}
	if !(models.Session{Token: token, ExpiresAt: expires}).Valid(m.now()) {
		delete(m.sessions, token)
		return false
	}
	return true
}

func (m *Manager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// ChangePassword replaces the credential after verifying the current password and
// ends every open session.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	if err := m.verify(ctx, current); err != nil {
		return err
	}
	if err := m.save(ctx, next); err != nil {
		return err
	}

	m.mu.Lock()
	m.sessions = make(map[string]time.Time)
	m.mu.Unlock()

	m.logger.Info().Msg("Admin password changed")
	return nil
}

func (m *Manager) pruneLocked() {
	now := m.now()
	for token, expires := range m.sessions {
		if !now.Before(expires) {
			delete(m.sessions, token)
		}
	}
}
