package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicbook/internal/api"
	"clinicbook/internal/auth"
	"clinicbook/internal/booking"
	"clinicbook/internal/config"
	"clinicbook/internal/logging"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/notify"
	"clinicbook/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const healthInterval = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := *logging.Component(&base, "clinicbook-main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	opened, err := store.Open(ctx, cfg, logging.Component(&base, "store"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Store.Driver).Msg("open store")
		return err
	}
	defer opened.Store.Close()

	if opened.SQLite != nil && cfg.Backup.Enabled {
		go store.NewBackupService(opened.SQLite, cfg.Backup, logging.Component(&base, "backup")).Start(ctx)
	}

	repo := booking.NewRepository(opened.Store, cfg.Store.Key,
		booking.WithLocation(loc),
		booking.WithLogger(logging.Component(&base, "booking")),
	)
	repo.Subscribe(metrics.ObserveSnapshot)
	repo.Subscribe(func(bookings []models.Booking) {
		logger.Debug().Int("bookings", len(bookings)).Msg("Booking collection changed")
	})

	if err := seedBookings(ctx, cfg, repo, loc, &logger); err != nil {
		return err
	}

	deps := api.Deps{
		Bookings: repo,
		Auth:     auth.NewManager(opened.Store, cfg.Auth.AdminKey, cfg.Auth.SessionTTL, logging.Component(&base, "auth")),
		Store:    opened.Store,
	}
	if dispatcher := initDispatcher(cfg, logging.Component(&base, "notify")); dispatcher != nil {
		deps.Dispatcher = dispatcher
	}

	grpcServer, err := api.NewGRPCServer(cfg.API.GRPC, opened.Store, &base)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}

	httpServer := api.NewHTTPServer(cfg.API, cfg.Auth, deps, &base)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, *baseLogger, closer, nil
}

// seedEntry is one demo booking; the date is given as an offset from today.
type seedEntry struct {
	Name      string `yaml:"name"`
	Phone     string `yaml:"phone"`
	Service   string `yaml:"service"`
	Price     string `yaml:"price"`
	DayOffset int    `yaml:"day_offset"`
	Time      string `yaml:"time"`
	Status    string `yaml:"status"`
}

func loadSeed(path string, now time.Time, loc *time.Location) ([]models.Booking, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seedConfig struct {
		Bookings []seedEntry `yaml:"bookings"`
	}
	if err := yaml.Unmarshal(data, &seedConfig); err != nil {
		return nil, err
	}

	today := now.In(loc)
	samples := make([]models.Booking, 0, len(seedConfig.Bookings))
	for _, e := range seedConfig.Bookings {
		samples = append(samples, models.Booking{
			Name:    e.Name,
			Phone:   e.Phone,
			Service: e.Service,
			Price:   models.Price(e.Price),
			Date:    today.AddDate(0, 0, e.DayOffset).Format(models.DateLayout),
			Time:    e.Time,
			Status:  models.Status(e.Status),
		})
	}
	return samples, nil
}

func seedBookings(ctx context.Context, cfg *config.Config, repo *booking.Repository, loc *time.Location, logger *zerolog.Logger) error {
	if !cfg.Seed.Enabled {
		return nil
	}

	now := time.Now()
	samples := booking.DefaultSeed(now, loc)
	if cfg.Seed.File != "" {
		loaded, err := loadSeed(cfg.Seed.File, now, loc)
		if err != nil {
			logger.Error().Err(err).Str("seed_file", cfg.Seed.File).Msg("load seed")
			return err
		}
		samples = loaded
	}

	seeded, err := repo.Seed(ctx, samples)
	if err != nil {
		logger.Error().Err(err).Msg("seed bookings")
		return err
	}
	if seeded {
		logger.Info().Int("bookings", len(samples)).Msg("Demo bookings seeded")
	}
	return nil
}

func initDispatcher(cfg *config.Config, logger *zerolog.Logger) *notify.Dispatcher {
	if !cfg.Notify.Enabled {
		return nil
	}

	policy := notify.RetryPolicy{
		MaxRetries:   cfg.Notify.MaxRetries,
		InitialDelay: cfg.Notify.InitialDelay,
		MaxDelay:     cfg.Notify.MaxDelay,
	}
	return notify.NewDispatcher(notify.NewLogSender(cfg.Notify, logger), policy, logger,
		notify.WithObserver(func(d notify.Delivery) {
			metrics.ObserveDelivery(string(d.Kind), d.Error != "")
		}),
	)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go func() {
		if !cfg.API.GRPC.Enabled {
			return
		}
		go grpcServer.WatchHealth(ctx, healthInterval)
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("Clinic booking server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("Clinic booking server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
