package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"github.com/alphabotai/webappshop/pkg/httputil"
	"github.com/alphabotai/webappshop/pkg/logger"
	"github.com/alphabotai/webappshop/pkg/middleware"
)

const (
	sessionCookieName = "storefront_session"
	sessionCookieKey  = "id"
)

// NewCookieStore creates the signed cookie store that remembers the session
// id for clients that do not send X-Session-ID.
func NewCookieStore(key []byte, ttl time.Duration, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(ttl.Seconds()))
	if secure {
		// The mini app runs inside the host's webview on another origin.
		store.Options.SameSite = http.SameSiteNoneMode
	}
	return store
}

// SessionIDs resolves the browsing session of a request.
type SessionIDs struct {
	store  sessions.Store
	logger *slog.Logger
}

// NewSessionIDs creates a resolver backed by store.
func NewSessionIDs(store sessions.Store, logger *slog.Logger) *SessionIDs {
	return &SessionIDs{store: store, logger: logger}
}

// Middleware puts the session id into the request context. X-Session-ID
// wins over the cookie. A missing id is left to the service to reject.
func (s *SessionIDs) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := s.resolve(r); id != "" && logger.SessionIDFromContext(ctx) != id {
			ctx = logger.WithSessionID(ctx, id)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("session_id", id)))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *SessionIDs) resolve(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(middleware.HeaderSessionID)); id != "" {
		return id
	}
	sess, err := s.store.Get(r, sessionCookieName)
	if err != nil {
		// A cookie signed with a rotated key is treated as absent.
		return ""
	}
	id, _ := sess.Values[sessionCookieKey].(string)
	return id
}

// Remember writes the session cookie. The id is also returned in the body,
// so a failure here only loses the cookie fallback.
func (s *SessionIDs) Remember(w http.ResponseWriter, r *http.Request, id string) {
	sess, _ := s.store.Get(r, sessionCookieName)
	if sess == nil {
		return
	}
	sess.Values[sessionCookieKey] = id
	if err := sess.Save(r, w); err != nil {
		s.logger.WarnContext(r.Context(), "failed to set session cookie",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Forget expires the session cookie.
func (s *SessionIDs) Forget(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.store.Get(r, sessionCookieName)
	if sess == nil {
		return
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.logger.WarnContext(r.Context(), "failed to clear session cookie", slog.String("error", err.Error()))
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
