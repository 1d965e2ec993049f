// Package hostctx reads the buyer identity passed in by the mini-app host.
//
// The host web view forwards its raw init data (a URL query string) in the
// X-Telegram-Init-Data header. The "user" field carries a JSON object with
// the platform id and username. When a bot token is configured the signature
// and auth_date freshness are checked with init-data-golang.
package hostctx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/alphabotai/webappshop/internal/domain"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
)

// DefaultUsername is used when the host sends an id without a username.
const DefaultUsername = "(unknown)"

// Warnings shown to the buyer. None of them blocks checkout.
const (
	WarnNoHost     = "the store is open outside the messenger, continuing anonymously"
	WarnUnreadable = "your messenger identity could not be read, continuing anonymously"
	WarnUnverified = "your messenger identity could not be verified, continuing anonymously"
	WarnNoIdentity = "your messenger identity is unavailable, continuing anonymously"
	WarnExpired    = "your messenger session has expired, reopen the store to sign in"
)

// DefaultMaxAge is how long signed init data stays valid after auth_date.
const DefaultMaxAge = 24 * time.Hour

var errNoUser = errors.New("init data has no user id")

// Result is the outcome of a read. User is nil when no identity is known;
// Warning is then set.
type Result struct {
	User    *domain.HostUser
	Warning string
}

// Reader parses host init data.
type Reader struct {
	botToken string
	maxAge   time.Duration
	required bool
	logger   *slog.Logger
}

// NewReader creates a reader. An empty botToken disables signature checks.
// Signed init data older than maxAge is rejected; a non-positive maxAge
// falls back to DefaultMaxAge. With required set a missing or unverifiable
// identity is an error instead of a warning.
func NewReader(botToken string, maxAge time.Duration, required bool, logger *slog.Logger) *Reader {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Reader{botToken: botToken, maxAge: maxAge, required: required, logger: logger}
}

// Read extracts the host user from raw init data.
func (r *Reader) Read(ctx context.Context, initData string) (Result, error) {
	if strings.TrimSpace(initData) == "" {
		return r.soft(ctx, WarnNoHost, nil)
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return r.soft(ctx, WarnUnreadable, err)
	}

	if r.botToken != "" {
		if err := initdata.Validate(initData, r.botToken, r.maxAge); err != nil {
			if errors.Is(err, initdata.ErrExpired) {
				return r.soft(ctx, WarnExpired, err)
			}
			return r.soft(ctx, WarnUnverified, err)
		}
	}

	user, err := parseUser(values.Get("user"))
	if err != nil {
		if errors.Is(err, errNoUser) {
			return r.soft(ctx, WarnNoIdentity, err)
		}
		return r.soft(ctx, WarnUnreadable, err)
	}
	return Result{User: user}, nil
}

func (r *Reader) soft(ctx context.Context, warning string, cause error) (Result, error) {
	attrs := []any{slog.String("warning", warning)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	if r.required {
		r.logger.WarnContext(ctx, "host context required but unavailable", attrs...)
		return Result{}, apperrors.Unauthorized("open the store from the messenger to continue")
	}
	r.logger.InfoContext(ctx, "continuing without host identity", attrs...)
	return Result{Warning: warning}, nil
}

type rawUser struct {
	ID       json.RawMessage `json:"id"`
	Username string          `json:"username"`
}

func parseUser(raw string) (*domain.HostUser, error) {
	if raw == "" {
		return nil, errNoUser
	}
	var u rawUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	id, err := idString(u.ID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errNoUser
	}

	username := strings.TrimSpace(u.Username)
	if username == "" {
		username = DefaultUsername
	}
	return &domain.HostUser{ID: id, Username: username}, nil
}

// idString accepts the id as a JSON number or string.
func idString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode user id: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode user id: %w", err)
	}
	return n.String(), nil
}
