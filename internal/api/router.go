package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	apihandler "github.com/codelens-labs/codelens/internal/api/handler"
	apimw "github.com/codelens-labs/codelens/internal/api/middleware"
	"github.com/codelens-labs/codelens/internal/embedding"
	"github.com/codelens-labs/codelens/internal/ingestion"
	"github.com/codelens-labs/codelens/internal/store"
)

// RouterDeps holds the dependencies wired into the HTTP surface.
type RouterDeps struct {
	Pool          *pgxpool.Pool
	Store         *store.Store
	Dispatcher    apihandler.EventProcessor
	Runner        apihandler.TaskSubmitter
	Tracker       ingestion.StatusTracker
	Embedder      embedding.Embedder
	Analyzer      apihandler.Analyzer
	WebhookSecret string
}

func NewRouter(logger *slog.Logger, deps *RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.Logger(logger))
	r.Use(chimw.Recoverer)

	health := apihandler.NewHealthHandler(deps.Pool)
	r.Get("/health", health.Live)
	r.Get("/health/ready", health.Ready)

	webhook := apihandler.NewWebhookHandler(logger, deps.WebhookSecret, deps.Dispatcher, deps.Runner)
	r.Post("/webhook", webhook.Receive)

	r.Route("/api", func(r chi.Router) {
		repos := apihandler.NewRepositoryHandler(logger, deps.Dispatcher, deps.Runner, deps.Tracker)
		r.Route("/repositories", func(r chi.Router) {
			r.Post("/embed", repos.Embed)
			r.Get("/status/{processingID}", repos.Status)
		})

		search := apihandler.NewSearchHandler(logger, deps.Store, deps.Embedder, deps.Analyzer)
		r.Post("/search", search.Search)

		projects := apihandler.NewProjectHandler(logger, deps.Store)
		r.Get("/projects", projects.List)
	})

	return r
}
