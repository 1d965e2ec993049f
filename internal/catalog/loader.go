package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/alphabotai/webappshop/internal/domain"
	"github.com/alphabotai/webappshop/pkg/httpclient"
	"github.com/alphabotai/webappshop/pkg/tracing"
)

// ErrMalformedCatalog is returned when the product source does not answer
// with a JSON array.
var ErrMalformedCatalog = errors.New("catalog response is not a JSON array")

// maxCatalogBody bounds the sheet response.
const maxCatalogBody = 8 << 20

// Doer sends an HTTP request.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Loader fetches and normalizes the product sheet.
type Loader struct {
	client  Doer
	url     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewLoader creates a loader for the sheet at url.
func NewLoader(client Doer, url string, timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{client: client, url: url, timeout: timeout, logger: logger}
}

// Fetch performs one GET of the sheet. It is never retried.
func (l *Loader) Fetch(ctx context.Context) ([]domain.Product, error) {
	ctx, span := tracing.Tracer("github.com/alphabotai/webappshop/internal/catalog").Start(ctx, "catalog.Fetch")
	defer span.End()

	products, err := l.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	return products, nil
}

func (l *Loader) fetch(ctx context.Context) ([]domain.Product, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("fetch catalog: %w", httpclient.ReadStatusError(resp, "catalog"))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBody))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return l.decode(ctx, body)
}

func (l *Loader) decode(ctx context.Context, body []byte) ([]domain.Product, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}

	products := make([]domain.Product, 0, len(rows))
	for i, row := range rows {
		var raw RawProduct
		if err := json.Unmarshal(row, &raw); err != nil {
			l.logger.WarnContext(ctx, "skipping catalog row",
				slog.Int("row", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		products = append(products, Normalize(raw))
	}
	return products, nil
}
