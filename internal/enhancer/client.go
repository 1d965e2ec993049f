package enhancer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/alphabotai/webappshop/pkg/httpclient"
	"github.com/alphabotai/webappshop/pkg/tracing"
)

const serviceName = "enhancer"

// ErrEmptyCompletion is returned when the answer has no candidate text.
var ErrEmptyCompletion = errors.New("generation response has no text")

// Doer sends an HTTP request.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds the generative text endpoint settings.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Client calls the generateContent endpoint.
type Client struct {
	client Doer
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a client.
func NewClient(client Doer, cfg Config, logger *slog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{client: client, cfg: cfg, logger: logger}
}

// Prompt builds the description rewrite prompt for a product.
func Prompt(name, description string) string {
	return "Enhance this product description for an e-commerce store. " +
		"Make it more appealing, highlight key features, and encourage purchase. " +
		"Keep it concise (2-3 sentences). " +
		fmt.Sprintf("Product Name: %q. Current Description: %q", name, description)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one prompt and returns the trimmed first candidate text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracing.Tracer("github.com/alphabotai/webappshop/internal/enhancer").Start(ctx, "enhancer.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("enhancer.model", c.cfg.Model))

	text, err := c.generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	c.logger.DebugContext(ctx, "description generated", slog.Int("chars", len(text)))
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", serviceName, redactKey(err, c.cfg.APIKey))
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		statusErr := httpclient.ReadStatusError(resp, serviceName)
		var apiErr apiError
		if json.Unmarshal([]byte(statusErr.Body), &apiErr) == nil && apiErr.Error.Message != "" {
			statusErr.Body = apiErr.Error.Message
		}
		return "", statusErr
	}
	defer func() { _ = resp.Body.Close() }()

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// redactKey keeps the API key out of transport errors, which quote the URL.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	for _, form := range []string{url.QueryEscape(key), key} {
		msg = strings.ReplaceAll(msg, form, "REDACTED")
	}
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}
