package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alphabotai/webappshop/pkg/health"
	"github.com/alphabotai/webappshop/pkg/middleware"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORSOrigins    []string
	PprofCIDRs     []string
	RequestTimeout time.Duration
	CatalogMaxAge  int
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	catalogHandler *CatalogHandler,
	sessionHandler *SessionHandler,
	sessionIDs *SessionIDs,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	outbound := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, middleware.ClientIP, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(cfg.CatalogMaxAge)).Get("/", catalogHandler.List)
		r.With(outbound).Post("/reload", catalogHandler.Reload)
		r.With(outbound).Post("/{id}/enhance", catalogHandler.Enhance)
	})

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)
		r.Use(sessionIDs.Middleware)

		r.Post("/", sessionHandler.Start)
		r.Get("/", sessionHandler.Get)
		r.Delete("/", sessionHandler.End)

		r.Post("/cart/items", sessionHandler.AddItem)
		r.Delete("/cart/items/{index}", sessionHandler.RemoveItem)

		r.Put("/contact", sessionHandler.UpdateContact)
		r.Put("/address", sessionHandler.UpdateAddress)
		r.Put("/payment", sessionHandler.SelectPayment)

		r.Post("/next", sessionHandler.Next)
		r.Post("/back", sessionHandler.Back)
		r.With(outbound).Post("/submit", sessionHandler.Submit)
	})

	return r
}
