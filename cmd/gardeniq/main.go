package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/gardeniq/internal/adapter/fsm"
	otelAdapter "github.com/neomorfeo/gardeniq/internal/adapter/otel"
	riverAdapter "github.com/neomorfeo/gardeniq/internal/adapter/river"
	"github.com/neomorfeo/gardeniq/internal/adapter/sqlite"
	"github.com/neomorfeo/gardeniq/internal/adapter/sse"
	"github.com/neomorfeo/gardeniq/internal/app"
	"github.com/neomorfeo/gardeniq/internal/config"
	"github.com/neomorfeo/gardeniq/internal/domain"

	handler "github.com/neomorfeo/gardeniq/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// --- Observability ---
	providers, err := otelAdapter.Setup(ctx, otelAdapter.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otelAdapter.OpenDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	journal := otelAdapter.NewTracingJournal(repo)

	hub := sse.NewHub()
	defer hub.Close()

	// The tick worker needs the service and the service needs the River
	// publisher, so the ticker resolves svc lazily.
	var svc *app.GardenService
	ticker := otelAdapter.NewTracingTicker(domain.TickerFunc(func(ctx context.Context) error {
		return svc.Tick(ctx)
	}))

	riverClient, err := riverAdapter.Setup(ctx, db, riverAdapter.Options{
		Journal:      journal,
		Ticker:       ticker,
		TickInterval: cfg.TickInterval,
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	publisher, err := otelAdapter.NewTracingPublisher(app.FanOut{
		hub,
		riverAdapter.NewPublisher(riverClient),
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	// --- Application ---
	world := domain.NewWorld(cfg.TimeDilation, cfg.Epoch, domain.WithForecaster(cfg.Forecaster()))
	svc = app.NewGardenService(world, app.SystemClock{}, publisher, fsm.New(), journal)
	for range cfg.InitialBeds {
		svc.AddBed(ctx)
	}

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("gardeniq", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("gardeniq", "0.1.0"))
	handler.Register(api, svc, hub)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("gardeniq listening", "addr", srv.Addr, "docs", fmt.Sprintf("http://localhost:%d/docs", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Open streams only end once their subscription is closed.
	hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}

	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("river shutdown", "error", err)
	}

	slog.Info("stopped")
	return runErr
}
