package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alphabotai/webappshop/internal/domain"
	"github.com/alphabotai/webappshop/internal/hostctx"
	"github.com/alphabotai/webappshop/internal/repository/memory"
	"github.com/alphabotai/webappshop/internal/webhook"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, label string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(label).Write(&m))
	return m.GetCounter().GetValue()
}

type stubCatalog struct {
	products map[string]domain.Product
	readyErr error
}

func newStubCatalog(products ...domain.Product) *stubCatalog {
	c := &stubCatalog{products: make(map[string]domain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *stubCatalog) Ready(context.Context) error { return c.readyErr }

func (c *stubCatalog) Get(id string) (domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return p, nil
}

func (c *stubCatalog) SetEnhancedDescription(id, text string) (domain.Product, error) {
	p, err := c.Get(id)
	if err != nil {
		return p, err
	}
	p.EnhancedDescription = text
	c.products[id] = p
	return p, nil
}

type mockHost struct {
	mock.Mock
}

func (m *mockHost) Read(ctx context.Context, initData string) (hostctx.Result, error) {
	args := m.Called(ctx, initData)
	return args.Get(0).(hostctx.Result), args.Error(1)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Submit(ctx context.Context, order domain.Order) (*webhook.Receipt, error) {
	args := m.Called(ctx, order)
	if r := args.Get(0); r != nil {
		return r.(*webhook.Receipt), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishOrderSubmitted(ctx context.Context, sessionID string, order domain.Order) error {
	return m.Called(ctx, sessionID, order).Error(0)
}

func (m *mockEvents) PublishSessionStarted(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

type fixture struct {
	svc     *SessionService
	repo    *memory.SessionRepository
	catalog *stubCatalog
	host    *mockHost
	sink    *mockSink
	events  *mockEvents
}

var (
	shirt = domain.Product{ID: "p1", Name: "Shirt", Price: 1000}
	mug   = domain.Product{ID: "p2", Name: "Mug", Price: 2500}
	scarf = domain.Product{ID: "p3", Name: "Scarf", Price: 4000, Colors: []string{"red", "blue"}}
)

func newFixture(payment PaymentOptions) *fixture {
	f := &fixture{
		repo:    memory.NewSessionRepository(),
		catalog: newStubCatalog(shirt, mug, scarf),
		host:    new(mockHost),
		sink:    new(mockSink),
		events:  new(mockEvents),
	}
	f.events.On("PublishSessionStarted", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = NewSessionService(f.repo, f.catalog, f.host, f.sink, f.events, testLogger(), SessionConfig{
		TTL:                  time.Hour,
		Payment:              payment,
		AnonymousPlaceholder: "anonymous",
	})
	return f
}
