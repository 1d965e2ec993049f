package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alphabotai/webappshop/internal/domain"
	pkgkafka "github.com/alphabotai/webappshop/pkg/kafka"
	"github.com/alphabotai/webappshop/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishOrderSubmitted(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, testLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	order := domain.Order{ClientOrderID: "WEBAPP-1-abcde", Total: 3500}

	pub.On("Publish", ctx, TopicOrderSubmitted, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data OrderSubmittedData
		if err := json.Unmarshal(e.Data, &data); err != nil {
			return false
		}
		return e.AggregateID == "WEBAPP-1-abcde" &&
			e.CorrelationID == "corr-9" &&
			e.Source == SourceStorefront &&
			data.SessionID == "s1" &&
			data.Order.Total == 3500
	})).Return(nil)

	require.NoError(t, p.PublishOrderSubmitted(ctx, "s1", order))
	pub.AssertExpectations(t)
}

func TestPublishSessionStarted(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, testLogger())
	s := domain.NewSession("s1", time.Now(), time.Hour)
	s.AdoptHostUser(&domain.HostUser{ID: "42", Username: "aida"})

	pub.On("Publish", mock.Anything, TopicSessionStarted, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data SessionStartedData
		return json.Unmarshal(e.Data, &data) == nil && data.HostUserID == "42" && !data.Anonymous
	})).Return(nil)

	require.NoError(t, p.PublishSessionStarted(context.Background(), s))
	pub.AssertExpectations(t)
}

func TestPublish_Error(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := NewProducer(pub, testLogger()).PublishOrderSubmitted(context.Background(), "s1", domain.Order{ClientOrderID: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestDiscard(t *testing.T) {
	var d Discard
	assert.NoError(t, d.PublishOrderSubmitted(context.Background(), "s1", domain.Order{}))
	assert.NoError(t, d.PublishSessionStarted(context.Background(), &domain.Session{}))
}
