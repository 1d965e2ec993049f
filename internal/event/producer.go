package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alphabotai/webappshop/internal/domain"
	pkgkafka "github.com/alphabotai/webappshop/pkg/kafka"
	"github.com/alphabotai/webappshop/pkg/logger"
)

// Kafka topics for storefront events.
const (
	TopicOrderSubmitted = "storefront.order.submitted"
	TopicSessionStarted = "storefront.session.started"
)

// Aggregate types.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeSession = "session"
)

// SourceStorefront identifies events emitted by this service.
const SourceStorefront = "storefront"

// OrderSubmittedData is the payload of an order.submitted event.
type OrderSubmittedData struct {
	SessionID string       `json:"session_id"`
	Order     domain.Order `json:"order"`
}

// SessionStartedData is the payload of a session.started event.
type SessionStartedData struct {
	SessionID  string `json:"session_id"`
	HostUserID string `json:"host_user_id,omitempty"`
	Anonymous  bool   `json:"anonymous"`
}

// Publisher is the Kafka side the producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishOrderSubmitted announces an order accepted by the sink.
func (p *Producer) PublishOrderSubmitted(ctx context.Context, sessionID string, order domain.Order) error {
	data := OrderSubmittedData{SessionID: sessionID, Order: order}
	if err := p.publish(ctx, TopicOrderSubmitted, order.ClientOrderID, AggregateTypeOrder, data); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "published order.submitted event",
		slog.String("order_id", order.ClientOrderID),
		slog.Int64("total", order.Total),
	)
	return nil
}

// PublishSessionStarted announces a new browsing session.
func (p *Producer) PublishSessionStarted(ctx context.Context, s *domain.Session) error {
	data := SessionStartedData{SessionID: s.ID, Anonymous: s.HostUser == nil}
	if s.HostUser != nil {
		data.HostUserID = s.HostUser.ID
	}
	return p.publish(ctx, TopicSessionStarted, s.ID, AggregateTypeSession, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Discard drops every event. It is used when no broker is configured.
type Discard struct{}

// PublishOrderSubmitted implements service.EventPublisher.
func (Discard) PublishOrderSubmitted(context.Context, string, domain.Order) error { return nil }

// PublishSessionStarted implements service.EventPublisher.
func (Discard) PublishSessionStarted(context.Context, *domain.Session) error { return nil }
