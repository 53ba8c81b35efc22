package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/domain"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/notify"

	"github.com/rs/zerolog"
)

const (
	maxBodyBytes  = 1 << 20
	maxImportSize = 10 << 20
	notifyTimeout = 30 * time.Second
)

// Deps are the collaborators the HTTP API exposes.
type Deps struct {
	Bookings   domain.BookingRepository
	Auth       domain.Authenticator
	Dispatcher domain.Dispatcher
	Store      Pinger
}

// HTTPServer exposes the booking repository and admin access control as JSON over HTTP.
type HTTPServer struct {
	deps    Deps
	authCfg config.AuthConfig
	limiter *rateLimiter
	log     zerolog.Logger
	server  *http.Server

	// pending tracks notification goroutines so Shutdown can wait for them
	pending sync.WaitGroup
}

func NewHTTPServer(cfg config.APIConfig, authCfg config.AuthConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		deps:    deps,
		authCfg: authCfg,
		limiter: newRateLimiter(cfg.RateLimit),
		log:     zerolog.Nop(),
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

// Handler builds the routed handler with logging and rate limiting applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/bookings", s.handleCreate)
	mux.HandleFunc("GET /api/v1/bookings", s.requireAdmin(s.handleList))
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.requireAdmin(s.handleGet))
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", s.requireAdmin(s.handleUpdate))
	mux.HandleFunc("PUT /api/v1/bookings/{id}/status", s.requireAdmin(s.handleUpdateStatus))
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", s.requireAdmin(s.handleCancel))
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", s.requireAdmin(s.handleDelete))
	mux.HandleFunc("GET /api/v1/stats", s.requireAdmin(s.handleStats))
	mux.HandleFunc("GET /api/v1/export.csv", s.requireAdmin(s.handleExportCSV))
	mux.HandleFunc("GET /api/v1/export.xlsx", s.requireAdmin(s.handleExportXLSX))
	mux.HandleFunc("POST /api/v1/import", s.requireAdmin(s.handleImport))
	mux.HandleFunc("GET /api/v1/notifications", s.requireAdmin(s.handleNotifications))

	mux.HandleFunc("GET /api/v1/auth/status", s.handleAuthStatus)
	mux.HandleFunc("POST /api/v1/auth/setup", s.handleSetup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.requireAdmin(s.handleLogout))
	mux.HandleFunc("POST /api/v1/auth/password", s.requireAdmin(s.handleChangePassword))

	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.loggingMiddleware(s.rateLimitMiddleware(mux))
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight notifications.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.waitNotifications()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("Shutdown timed out waiting for notifications")
	}
	return err
}

// notify runs a dispatcher call off the request path.
func (s *HTTPServer) notify(kind notify.Kind, b models.Booking) {
	d := s.deps.Dispatcher
	if d == nil {
		return
	}
	send := d.NotifyBooking
	if kind == notify.KindConfirmation {
		send = d.NotifyConfirmation
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := send(ctx, b); err != nil {
			s.log.Warn().Err(err).Str("kind", string(kind)).Str("booking_id", b.ID).Msg("Notification not delivered")
		}
	}()
}

// waitNotifications blocks until every dispatched notification has finished.
func (s *HTTPServer) waitNotifications() {
	s.pending.Wait()
}

func (s *HTTPServer) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Auth == nil || !s.deps.Auth.Authenticate(s.sessionToken(r)) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

// sessionToken reads the token from the auth header, with or without a Bearer prefix.
func (s *HTTPServer) sessionToken(r *http.Request) string {
	header := s.authCfg.Header
	if header == "" {
		header = "Authorization"
	}
	raw := strings.TrimSpace(r.Header.Get(header))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.ObserveHTTP(endpoint, recorder.status, dur)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
