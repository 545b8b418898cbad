package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/academigold/internal/application"
	"github.com/example/academigold/internal/config"
	httptransport "github.com/example/academigold/internal/http"
	"github.com/example/academigold/internal/logging"
	"github.com/example/academigold/internal/metrics"
	"github.com/example/academigold/internal/persistence"
	"github.com/example/academigold/internal/persistence/memory"
	"github.com/example/academigold/internal/persistence/postgres"
	s3store "github.com/example/academigold/internal/persistence/s3"
	"github.com/example/academigold/internal/persistence/sqlite"
	"github.com/example/academigold/internal/tracing"
)

const serviceName = "academigold"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	app, err := newApp(ctx, cfg, logger, time.Now)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	go app.runSweeper(ctx, cfg.SweepInterval)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("academigold API listening", "addr", server.Addr, "store_driver", cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// app holds the wired services behind the HTTP handler.
type app struct {
	store        *persistence.Store
	reservations *application.ReservationService
	metrics      *metrics.Metrics
	handler      http.Handler
	logger       *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*app, error) {
	docs, err := openDocuments(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StoreDriver, err)
	}

	store, err := persistence.Open(ctx, docs, persistence.Options{
		Logger: logger,
		Seed: func() persistence.Dataset {
			return persistence.DefaultSeed(persistence.PasswordHasher(application.HashPassword), now())
		},
	})
	if err != nil {
		_ = docs.Close()
		return nil, fmt.Errorf("load storage: %w", err)
	}

	users := newUserRepositoryAdapter(store)
	spaces := newSpaceRepositoryAdapter(store)

	reservationService := application.NewReservationServiceWithLogger(newReservationRepositoryAdapter(store), spaces, users, now, logger)
	spaceService := application.NewSpaceServiceWithLogger(spaces, now, logger)
	userService := application.NewUserServiceWithLogger(users, application.HashPassword, now, logger)
	softwareService := application.NewSoftwareServiceWithLogger(newSoftwareRepositoryAdapter(store), now, logger)
	statisticsService := application.NewStatisticsService(newSnapshotAdapter(store), now, logger)
	authService := application.NewAuthServiceWithLogger(newCredentialStoreAdapter(store), nil, []byte(cfg.SessionSecret), now, cfg.SessionTTL, logger)

	m := metrics.New()
	reservationService.SetObserver(m)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Spaces:         httptransport.NewSpaceHandler(spaceService, reservationService, logger),
		Reservations:   httptransport.NewReservationHandler(reservationService, logger),
		Software:       httptransport.NewSoftwareHandler(softwareService, logger),
		Statistics:     httptransport.NewStatisticsHandler(statisticsService, logger),
		Metrics:        m.Handler(),
		RequireSession: httptransport.RequireSession(authService, logger),
		Instrument:     m.Middleware,
		Middleware:     []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	return &app{
		store:        store,
		reservations: reservationService,
		metrics:      m,
		handler:      router,
		logger:       logger,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// runSweeper completes elapsed reservations once at start and then every
// interval until ctx is done. A non-positive interval disables it.
func (a *app) runSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *app) sweep(ctx context.Context) {
	completed, err := a.reservations.CompleteElapsed(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to complete elapsed reservations", "error", err)
		return
	}
	a.metrics.SweepCompleted(completed)
	if completed > 0 {
		a.logger.InfoContext(ctx, "elapsed reservations completed", "count", completed)
	}
}

func openDocuments(ctx context.Context, cfg config.Config) (persistence.Documents, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLitePath))
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.PostgresDSN)
	case config.DriverS3:
		return s3store.Open(ctx, s3store.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
