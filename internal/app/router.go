package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/cashbox"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/lifecycle"
	"github.com/odyssey-erp/odyssey-pos/internal/masterdata"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/reconciliation"
	"github.com/odyssey-erp/odyssey-pos/jobs"
	"github.com/odyssey-erp/odyssey-pos/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Container *Container
	// Inspector backs /jobs/health. Nil reports an empty queue.
	Inspector *asynq.Inspector
}

// NewRouter constructs the chi.Router with POS defaults.
func NewRouter(params RouterParams) http.Handler {
	c := params.Container
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpx.DefaultLanguage = c.Config.DefaultLocale

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  c.Config,
		Metrics: c.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "store": c.Config.StoreDriver})
	})
	if c.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", c.Metrics.Handler())
	}
	r.Route("/jobs", jobs.NewHandler(params.Inspector, logger).MountRoutes)

	r.Route("/api", func(r chi.Router) {
		lifecycle.NewHandler(c.Lifecycle, logger).MountRoutes(r)
		r.Route("/cashbox", cashbox.NewHandler(c.Cashbox, c.Lifecycle, logger).MountRoutes)
		r.Route("/inventory", inventory.NewHandler(inventory.NewService(c.Store), logger).MountRoutes)
		reconciliation.NewHandler(c.Reconciliation, logger).MountRoutes(r)
		masterdata.NewHandler(logger, c.MasterData).MountRoutes(r)

		var renderer report.Renderer
		if c.Renderer != nil {
			renderer = c.Renderer
		}
		r.Route("/reports", report.NewHandler(renderer, c.Reconciliation, c.Config.DefaultLocale, logger).MountRoutes)
	})
	return r
}

// requestLogger writes one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
