package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alphabotai/webappshop/internal/catalog"
	"github.com/alphabotai/webappshop/internal/config"
	"github.com/alphabotai/webappshop/internal/enhancer"
	"github.com/alphabotai/webappshop/internal/event"
	handler "github.com/alphabotai/webappshop/internal/handler/http"
	"github.com/alphabotai/webappshop/internal/hostctx"
	"github.com/alphabotai/webappshop/internal/repository"
	"github.com/alphabotai/webappshop/internal/repository/memory"
	redisrepo "github.com/alphabotai/webappshop/internal/repository/redis"
	"github.com/alphabotai/webappshop/internal/service"
	"github.com/alphabotai/webappshop/internal/webhook"
	"github.com/alphabotai/webappshop/pkg/database"
	"github.com/alphabotai/webappshop/pkg/health"
	"github.com/alphabotai/webappshop/pkg/httpclient"
	pkgkafka "github.com/alphabotai/webappshop/pkg/kafka"
	"github.com/alphabotai/webappshop/pkg/tracing"
)

const (
	serviceName    = "storefront"
	serviceVersion = "1.0.0"
	sweepInterval  = time.Minute
	catalogMaxAge  = 60
)

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	memorySessions *memory.SessionRepository
	catalog        *catalog.Catalog
	httpServer     *http.Server
	shutdownTracer tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	shutdownTracer, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	healthHandler := health.NewHandler()

	// Session store.
	var sessions repository.SessionRepository
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = cfg.RedisHost
		redisCfg.Port = cfg.RedisPort
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", redisCfg.Addr()),
			slog.Int("db", redisCfg.DB),
		)
		a.rdb = rdb
		sessions = redisrepo.NewSessionRepository(rdb)
		healthHandler.RegisterCritical("redis", database.RedisChecker(rdb))
	default:
		a.memorySessions = memory.NewSessionRepository()
		sessions = a.memorySessions
	}

	// Domain events.
	var events service.EventPublisher = event.Discard{}
	if cfg.EventsEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("no kafka brokers configured, storefront events are disabled")
	}

	// Outbound collaborators, each behind its own breaker.
	catalogClient := a.breaker("catalog", cfg.CatalogTimeout())
	sinkClient := a.breaker("order-webhook", cfg.WebhookTimeout()).
		WithFallback(func(_ context.Context, err error) (*http.Response, error) {
			return nil, fmt.Errorf("order intake is temporarily unavailable: %w", err)
		})

	a.catalog = catalog.New(catalog.NewLoader(catalogClient, cfg.CatalogURL, cfg.CatalogTimeout(), logger), logger)
	if err := a.catalog.Reload(ctx); err != nil {
		// Keep serving: the catalog answers 503 until a reload succeeds.
		logger.Error("initial catalog load failed", slog.String("error", err.Error()))
	}
	healthHandler.RegisterCritical("catalog", a.catalog.Ready)
	logger.Info("readiness checks registered", slog.Any("checks", healthHandler.Names()))

	var generator service.TextGenerator
	if cfg.EnhancerEnabled() {
		generator = enhancer.NewClient(a.breaker("enhancer", cfg.EnhancerTimeout()), enhancer.Config{
			BaseURL: cfg.EnhancerBaseURL,
			Model:   cfg.EnhancerModel,
			APIKey:  cfg.EnhancerAPIKey,
			Timeout: cfg.EnhancerTimeout(),
		}, logger)
	} else {
		logger.Info("no enhancer API key configured, description enhancement is disabled")
	}

	// Build the dependency graph.
	sessionService := service.NewSessionService(
		sessions,
		a.catalog,
		hostctx.NewReader(cfg.HostBotToken, cfg.HostInitDataMaxAge, cfg.HostContextRequired, logger),
		webhook.NewSubmitter(sinkClient, cfg.WebhookURL, cfg.OrderSinkFormat, cfg.WebhookTimeout(), logger),
		events,
		logger,
		service.SessionConfig{
			TTL: cfg.SessionTTL(),
			Payment: service.PaymentOptions{
				Mode:    cfg.PaymentMode,
				Methods: cfg.PaymentMethods,
				QRURL:   cfg.PaymentQRURL,
			},
			AnonymousPlaceholder: cfg.AnonymousPlaceholder,
		},
	)
	enhancerService := service.NewEnhancerService(a.catalog, generator, logger)

	sessionIDs := handler.NewSessionIDs(
		handler.NewCookieStore([]byte(cfg.SessionCookieKey), cfg.SessionTTL(), cfg.Environment == "production"),
		logger,
	)

	// Outbound calls run detached from the request, so the request deadline
	// only has to cover the slowest of them.
	requestTimeout := max(cfg.WebhookTimeout(), cfg.EnhancerTimeout(), cfg.CatalogTimeout()) + 5*time.Second

	// HTTP router.
	router := handler.NewRouter(
		handler.NewCatalogHandler(a.catalog, enhancerService, logger),
		handler.NewSessionHandler(sessionService, sessionIDs, logger),
		sessionIDs,
		healthHandler,
		logger,
		handler.RouterConfig{
			CORSOrigins:    cfg.CORSAllowedOrigins,
			PprofCIDRs:     cfg.PprofAllowedCIDRs,
			RequestTimeout: requestTimeout,
			CatalogMaxAge:  catalogMaxAge,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

func (a *App) breaker(name string, timeout time.Duration) *httpclient.Breaker {
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = timeout

	cbCfg := httpclient.DefaultBreakerConfig(name)
	cbCfg.Timeout = time.Duration(a.cfg.CBTimeoutSeconds) * time.Second
	cbCfg.FailureRatio = a.cfg.CBFailureRatio
	cbCfg.MinRequests = a.cfg.CBMinRequests

	return httpclient.NewBreaker(httpclient.New(clientCfg), cbCfg, a.logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.memorySessions != nil {
		go a.memorySessions.RunSweeper(ctx, sweepInterval)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
