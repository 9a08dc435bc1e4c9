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

	"github.com/joho/godotenv"

	"github.com/dwporter/dwporter/internal/api"
	"github.com/dwporter/dwporter/internal/api/handler"
	mw "github.com/dwporter/dwporter/internal/api/middleware"
	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/cache"
	"github.com/dwporter/dwporter/internal/config"
	"github.com/dwporter/dwporter/internal/history"
	"github.com/dwporter/dwporter/internal/inventory"
	"github.com/dwporter/dwporter/internal/migration"
	"github.com/dwporter/dwporter/internal/translate"
	"github.com/dwporter/dwporter/internal/warehouse"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := history.RunMigrations(cfg.Database.URL, "file://migrations"); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	historyStore, err := history.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to history database: %w", err)
	}
	defer historyStore.Close()
	slog.Info("connected to history database")

	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisCache.Close()
	slog.Info("connected to redis")

	backend, err := translate.NewTranslator(cfg.Translator)
	if err != nil {
		return fmt.Errorf("failed to build translator: %w", err)
	}
	translator := translate.NewService(backend, redisCache, cfg.Redis.CacheTTL)
	slog.Info("translator ready", "backend", backend.Name())

	var executor warehouse.Executor
	if cfg.Target.URL != "" {
		pool, err := warehouse.Connect(ctx, cfg.Target.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to target warehouse: %w", err)
		}
		defer pool.Close()
		executor = warehouse.NewPostgresExecutor(pool, cfg.Target.Schema)
		slog.Info("connected to target warehouse", "schema", cfg.Target.Schema)
	} else {
		executor = dryRunExecutor{}
		slog.Warn("no target warehouse configured, only dry-run migrations will apply")
	}

	jobStore := migration.NewStore()
	runner := migration.NewRunner(jobStore, translator, executor, historyStore, cfg.Translator.Timeout)

	router := api.NewRouter(api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, cfg.RateLimit.Requests, cfg.RateLimit.Window),

		HealthHandler: healthHandler(historyStore, redisCache, executor),

		StartMigration:   handler.NewStartMigrationHandler(runner, cfg.Translator.DefaultModel),
		ListMigrations:   handler.NewListMigrationsHandler(jobStore),
		MigrationHistory: handler.NewMigrationHistoryHandler(historyStore),
		GetMigration:     handler.NewGetMigrationHandler(jobStore),
		StreamMigration:  handler.NewStreamMigrationHandler(jobStore, migration.DefaultStreamInterval),
		CancelMigration:  handler.NewCancelMigrationHandler(jobStore),
		DeleteMigration:  handler.NewDeleteMigrationHandler(jobStore),

		TranslateHandler: handler.NewTranslateHandler(translator, cfg.Translator.Timeout),
		ExtractInventory: handler.NewExtractInventoryHandler(connectSource),
		ListModels:       handler.NewListModelsHandler(),
		EstimateHandler:  handler.NewEstimateHandler(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams write for the lifetime of a job
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// connectSource adapts inventory.Connect to the handler's interface.
func connectSource(ctx context.Context, params inventory.ConnectionParams) (handler.SourceExtractor, error) {
	return inventory.Connect(ctx, params)
}

// dryRunExecutor stands in when no target warehouse is configured. Real
// execution requests fail loudly instead of silently succeeding.
type dryRunExecutor struct{}

func (dryRunExecutor) Execute(ctx context.Context, statement string) error {
	return fmt.Errorf("%w: no target warehouse configured", warehouse.ErrUnreachable)
}

func (dryRunExecutor) Ping(ctx context.Context) error { return nil }

func healthHandler(historyStore history.Store, redisCache cache.Cache, executor warehouse.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{
			"database":  "ok",
			"redis":     "ok",
			"warehouse": "ok",
		}
		healthy := true

		if err := historyStore.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if err := redisCache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
		if err := executor.Ping(ctx); err != nil {
			checks["warehouse"] = err.Error()
			healthy = false
		}

		status := "healthy"
		if !healthy {
			status = "degraded"
		}
		response.JSON(w, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
