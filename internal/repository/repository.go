package repository

import (
	"context"

	"github.com/alphabotai/webappshop/internal/domain"
)

// SessionRepository stores browsing sessions until they expire.
type SessionRepository interface {
	// Get returns the session or an apperrors NotFound error when it is
	// unknown or expired.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Save stores the session until its ExpiresAt.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes the session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error
}
