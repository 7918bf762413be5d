package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/odyssey-erp/odyssey-pos/internal/lifecycle"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

const (
	fallbackRequestTimeout = 30 * time.Second
	fallbackRatePerMinute  = 300
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

func (m MiddlewareConfig) production() bool {
	return m.Config != nil && m.Config.IsProduction()
}

func (m MiddlewareConfig) limits() (timeout time.Duration, perMinute int, origins []string) {
	timeout, perMinute = fallbackRequestTimeout, fallbackRatePerMinute
	if m.Config == nil {
		return timeout, perMinute, nil
	}
	if m.Config.AppRequestTimeout > 0 {
		timeout = m.Config.AppRequestTimeout
	}
	if m.Config.RateLimitPerMin > 0 {
		perMinute = m.Config.RateLimitPerMin
	}
	return timeout, perMinute, m.Config.CORSOrigins
}

// MiddlewareStack returns the chain installed in front of every POS route.
// Metrics come last so route patterns are resolved when they are recorded.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	timeout, perMinute, origins := cfg.limits()

	stack := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		corsPolicy(origins),
		middleware.Timeout(timeout),
		secureHeaders(cfg),
		middleware.Compress(5),
		httprate.Limit(perMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		actorMiddleware,
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	return stack
}

// corsPolicy lets the till front-end send request keys and operator names.
func corsPolicy(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", lifecycle.IdempotencyHeader, shared.ActorHeader},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         600,
	})
}

func secureHeaders(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	prod := cfg.production()
	headers := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "no-referrer",
		SSLRedirect:        prod,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !prod,
	})
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := headers.Process(w, r); err != nil {
				logger.Warn("request rejected by secure headers", slog.String("path", r.URL.Path), slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actorMiddleware stores the operator named by the front-end for audit records.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(shared.ActorHeader); actor != "" {
			r = r.WithContext(shared.ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
