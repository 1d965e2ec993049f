package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alphabotai/webappshop/internal/domain"
	"github.com/alphabotai/webappshop/internal/hostctx"
	"github.com/alphabotai/webappshop/internal/repository"
	"github.com/alphabotai/webappshop/internal/webhook"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
	"github.com/alphabotai/webappshop/pkg/logger"
)

// Payment step variants.
const (
	PaymentModeImmediate = "immediate"
	PaymentModeMethod    = "method"
	PaymentModeQR        = "qr"
)

// ProductCatalog is the read side of the loaded catalog.
type ProductCatalog interface {
	Ready(ctx context.Context) error
	Get(id string) (domain.Product, error)
}

// HostReader reads the host identity from raw init data.
type HostReader interface {
	Read(ctx context.Context, initData string) (hostctx.Result, error)
}

// OrderSink hands an order to the intake webhook.
type OrderSink interface {
	Submit(ctx context.Context, order domain.Order) (*webhook.Receipt, error)
}

// EventPublisher emits storefront events.
type EventPublisher interface {
	PublishOrderSubmitted(ctx context.Context, sessionID string, order domain.Order) error
	PublishSessionStarted(ctx context.Context, s *domain.Session) error
}

// SessionConfig holds the session service settings.
type SessionConfig struct {
	TTL                  time.Duration
	Payment              PaymentOptions
	AnonymousPlaceholder string
}

// SessionService owns the cart and checkout wizard of every session.
type SessionService struct {
	repo    repository.SessionRepository
	catalog ProductCatalog
	host    HostReader
	sink    OrderSink
	events  EventPublisher
	logger  *slog.Logger

	ttl         time.Duration
	payment     PaymentOptions
	placeholder string

	locks      *keyedMutex
	submitting *inflight
	now        func() time.Time
}

// NewSessionService creates a session service.
func NewSessionService(
	repo repository.SessionRepository,
	catalog ProductCatalog,
	host HostReader,
	sink OrderSink,
	events EventPublisher,
	logger *slog.Logger,
	cfg SessionConfig,
) *SessionService {
	if cfg.Payment.Mode == "" {
		cfg.Payment.Mode = PaymentModeImmediate
	}
	return &SessionService{
		repo:        repo,
		catalog:     catalog,
		host:        host,
		sink:        sink,
		events:      events,
		logger:      logger,
		ttl:         cfg.TTL,
		payment:     cfg.Payment,
		placeholder: cfg.AnonymousPlaceholder,
		locks:       newKeyedMutex(),
		submitting:  newInflight(),
		now:         time.Now,
	}
}

// Start opens a browsing session. The catalog readiness check and the host
// identity read run concurrently; a catalog that is not loaded fails the
// start, a missing identity only adds a warning unless it is required.
func (s *SessionService) Start(ctx context.Context, initData string) (*SessionView, error) {
	var host hostctx.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.catalog.Ready(gctx)
	})
	g.Go(func() error {
		res, err := s.host.Read(gctx, initData)
		if err != nil {
			return err
		}
		host = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sess := domain.NewSession(uuid.NewString(), s.now().UTC(), s.ttl)
	sess.AdoptHostUser(host.User)
	sess.Warning = host.Warning

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	identity := "anonymous"
	if sess.HostUser != nil {
		identity = "host"
	}
	sessionsStarted.WithLabelValues(identity).Inc()

	ctx = logger.WithSessionID(ctx, sess.ID)
	s.logger.InfoContext(ctx, "session started",
		slog.String("session_id", sess.ID),
		slog.String("identity", identity),
	)

	if err := s.events.PublishSessionStarted(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.started event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	return s.view(sess), nil
}

// Get returns the current state of a session.
func (s *SessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// mutate loads a session under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (s *SessionService) mutate(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionService) save(ctx context.Context, sess *domain.Session) error {
	now := s.now().UTC()
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.repo.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// gateError maps wizard errors onto buyer-facing application errors.
func gateError(err error) error {
	var gate *domain.GateError
	switch {
	case errors.As(err, &gate):
		return apperrors.InvalidInput(gate.Message)
	case errors.Is(err, domain.ErrNoNextStep):
		return apperrors.Conflict(CodeInvalidStep, "submit the order to leave the payment step")
	default:
		return err
	}
}

// End discards a session. A session whose order is being sent cannot be
// ended until the submission finishes.
func (s *SessionService) End(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("session id is required")
	}
	if s.submitting.active(id) {
		return apperrors.Conflict(CodeSubmissionInProgress, "your order is still being sent")
	}

	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.InfoContext(ctx, "session ended", slog.String("session_id", id))
	return nil
}
