package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/alphabotai/webappshop/internal/domain"
	"github.com/alphabotai/webappshop/pkg/httpclient"
	"github.com/alphabotai/webappshop/pkg/tracing"
)

// Body formats understood by the order sink.
const (
	FormatJSON   = "json"
	FormatScript = "script"
)

const (
	serviceName  = "order-webhook"
	maxReplyBody = 4 << 10
)

// Doer sends an HTTP request.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// SubmissionError is a failed order hand-off. Status is 0 when no HTTP
// answer was received; Body holds the raw reply or error text.
type SubmissionError struct {
	Status int
	Body   string
	Err    error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("order sink answered %d: %s", e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("order sink answered %d", e.Status)
	default:
		return fmt.Sprintf("order sink unreachable: %s", e.Body)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Receipt confirms an accepted order.
type Receipt struct {
	OrderID string `json:"order_id"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// scriptReply is the body answered by a script-hosted sink.
type scriptReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Submitter posts orders to the configured sink exactly once.
type Submitter struct {
	client  Doer
	url     string
	format  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSubmitter creates a submitter. format is FormatJSON or FormatScript.
func NewSubmitter(client Doer, url, format string, timeout time.Duration, logger *slog.Logger) *Submitter {
	return &Submitter{client: client, url: url, format: format, timeout: timeout, logger: logger}
}

// Submit sends order. Any failure is returned as a *SubmissionError.
func (s *Submitter) Submit(ctx context.Context, order domain.Order) (*Receipt, error) {
	ctx, span := tracing.Tracer("github.com/alphabotai/webappshop/internal/webhook").Start(ctx, "webhook.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", order.ClientOrderID),
		attribute.String("order.sink_format", s.format),
	)

	receipt, err := s.submit(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return receipt, nil
}

func (s *Submitter) submit(ctx context.Context, order domain.Order) (*Receipt, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	// Script hosts reject application/json preflights, so the JSON goes out
	// as plain text.
	if s.format == FormatScript {
		req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, &SubmissionError{Status: statusErr.StatusCode, Body: statusErr.Body, Err: err}
		}
		return nil, &SubmissionError{Body: err.Error(), Err: err}
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		statusErr := httpclient.ReadStatusError(resp, serviceName)
		return nil, &SubmissionError{Status: statusErr.StatusCode, Body: statusErr.Body, Err: statusErr}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	receipt := &Receipt{OrderID: order.ClientOrderID, Status: resp.StatusCode}

	if s.format == FormatScript {
		var reply scriptReply
		if err := json.Unmarshal(raw, &reply); err != nil {
			s.logger.WarnContext(ctx, "order sink reply is not JSON, treating as accepted",
				slog.String("order_id", order.ClientOrderID),
				slog.Int("status", resp.StatusCode),
			)
			return receipt, nil
		}
		if strings.EqualFold(reply.Status, "error") {
			return nil, &SubmissionError{Status: resp.StatusCode, Body: reply.Message}
		}
		receipt.Message = reply.Message
	}

	return receipt, nil
}
