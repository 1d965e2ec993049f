package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "circuit_breaker_state",
			Help:      "Outbound breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "circuit_breaker_fallback_invoked_total",
			Help:      "Requests answered by the fallback while a breaker was open",
		},
		[]string{"name"},
	)
)

// ErrCircuitOpen is returned when the breaker rejects a request.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig tunes one breaker.
type BreakerConfig struct {
	// Name labels the breaker in metrics, logs and status errors.
	Name string

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts; 0 keeps them.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration

	// FailureRatio trips the breaker once MinRequests were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns defaults for a named breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// FallbackFunc answers instead of ErrCircuitOpen while the breaker is open.
type FallbackFunc func(ctx context.Context, err error) (*http.Response, error)

// Breaker guards a collaborator. Transport errors and 5xx answers count as
// failures; a 5xx comes back as a *StatusError carrying the reply text.
type Breaker struct {
	next     Doer
	cb       *gobreaker.CircuitBreaker[*http.Response]
	name     string
	logger   *slog.Logger
	fallback FallbackFunc
}

// NewBreaker wraps next.
func NewBreaker(next Doer, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	breakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))

	return &Breaker{
		next:   next,
		name:   cfg.Name,
		logger: logger,
		cb: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= cfg.MinRequests &&
					float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
				breakerState.WithLabelValues(name).Set(float64(to))
			},
		}),
	}
}

// WithFallback returns a copy that calls fn while the breaker is open.
func (b *Breaker) WithFallback(fn FallbackFunc) *Breaker {
	cpy := *b
	cpy.fallback = fn
	return &cpy
}

// Do sends req through the breaker.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, ReadStatusError(resp, b.name)
		}
		return resp, nil
	})
	if err == nil {
		return resp, nil
	}

	isOpen := errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
	if isOpen && b.fallback != nil {
		breakerFallbacks.WithLabelValues(b.name).Inc()
		b.logger.WarnContext(ctx, "circuit breaker open, invoking fallback", slog.String("breaker", b.name))
		return b.fallback(ctx, err)
	}
	return nil, err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
