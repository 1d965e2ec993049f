package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alphabotai/webappshop/internal/domain"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
)

type record struct {
	data      []byte
	expiresAt time.Time
}

// SessionRepository keeps sessions in process memory. Records are stored
// encoded so callers never share state with the store.
type SessionRepository struct {
	mu      sync.Mutex
	records map[string]record
	now     func() time.Time
}

// NewSessionRepository creates an empty in-memory repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		records: make(map[string]record),
		now:     time.Now,
	}
}

// Get returns a copy of the session.
func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	rec, ok := r.records[id]
	if ok && !r.now().Before(rec.expiresAt) {
		delete(r.records, id)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return nil, apperrors.NotFound("session", id)
	}

	var s domain.Session
	if err := json.Unmarshal(rec.data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Save stores a copy of the session until session.ExpiresAt.
func (r *SessionRepository) Save(_ context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[session.ID] = record{data: data, expiresAt: session.ExpiresAt}
	return nil
}

// Delete removes the session.
func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *SessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, rec := range r.records {
		if !now.Before(rec.expiresAt) {
			delete(r.records, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *SessionRepository) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
