package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codelens-labs/codelens/internal/api"
	"github.com/codelens-labs/codelens/internal/config"
	"github.com/codelens-labs/codelens/internal/embedding"
	"github.com/codelens-labs/codelens/internal/ingestion"
	"github.com/codelens-labs/codelens/internal/llm"
	"github.com/codelens-labs/codelens/internal/provider"
	"github.com/codelens-labs/codelens/internal/store"
	"github.com/codelens-labs/codelens/internal/store/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// .env is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Capability probe: pgvector-backed similarity ranking, or the JSONB
	// recency fallback when the extension is unavailable.
	backend := postgres.DetectBackend(ctx, pool, logger)
	if err := postgres.EnsureSchema(ctx, pool, backend, cfg.OpenRouter.Dimensions); err != nil {
		logger.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("storage ready", slog.String("backend", backend.String()))

	s := store.New(pool, backend)

	// Embeddings (auto-selects: OpenRouter > Bedrock > disabled)
	embedder, err := embedding.NewEmbedder(cfg)
	if err != nil {
		logger.Error("embedder init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if embedder == nil {
		logger.Warn("no embedding provider configured, ingestion and search disabled")
	} else {
		logger.Info("embeddings enabled",
			slog.String("provider", fmt.Sprintf("%T", embedder)),
			slog.String("model", embedder.ModelID()))
	}

	generator := embedding.NewGenerator(embedder, cfg.Ingest, logger)
	gitlab := provider.NewGitLabProvider(cfg.GitLab, cfg.Ingest.FetchConcurrency, logger)
	extractor := provider.NewCloneExtractor(cfg.Ingest.WorkDir, cfg.GitLab.Token, cfg.Ingest.MaxFileBytes, logger)
	dispatcher := ingestion.NewDispatcher(s, gitlab, generator, extractor, logger)
	runner := ingestion.NewRunner(logger)

	// Processing status tracking (Valkey when configured, else in-memory)
	var tracker ingestion.StatusTracker
	if cfg.Valkey.Addr != "" {
		vt, err := ingestion.NewValkeyTracker(cfg.Valkey, logger)
		if err != nil {
			logger.Warn("valkey connection failed, using in-memory status tracking", slog.String("error", err.Error()))
			tracker = ingestion.NewMemoryTracker()
		} else {
			defer vt.Close()
			tracker = vt
			logger.Info("connected to valkey")
		}
	} else {
		tracker = ingestion.NewMemoryTracker()
	}

	deps := &api.RouterDeps{
		Pool:          pool,
		Store:         s,
		Dispatcher:    dispatcher,
		Runner:        runner,
		Tracker:       tracker,
		Embedder:      embedder,
		WebhookSecret: cfg.Webhook.Secret,
	}
	if cfg.LLM.APIKey != "" {
		deps.Analyzer = llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
		logger.Info("search analysis enabled", slog.String("model", cfg.LLM.Model))
	}

	router := api.NewRouter(logger, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting API server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	// Let in-flight background runs drain before exiting.
	runner.Wait()

	logger.Info("server stopped")
}
