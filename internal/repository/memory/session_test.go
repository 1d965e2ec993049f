package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabotai/webappshop/internal/domain"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
)

func TestSessionRepository_SaveGetIsolated(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	s := domain.NewSession("s1", time.Now(), time.Hour)
	s.Cart.Append(domain.CartEntry{Product: domain.Product{ID: "p1", Price: 1000}})
	require.NoError(t, repo.Save(ctx, s))

	s.Cart.Append(domain.CartEntry{Product: domain.Product{ID: "p2"}})

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Cart.Len(), "stored copy is not affected by later mutation")
	assert.Equal(t, domain.StepCatalog, got.Step)
}

func TestSessionRepository_NotFound(t *testing.T) {
	_, err := NewSessionRepository().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepository_Expiry(t *testing.T) {
	repo := NewSessionRepository()
	now := time.Now()
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.NewSession("short", now, time.Minute)))
	require.NoError(t, repo.Save(ctx, domain.NewSession("long", now, time.Hour)))

	now = now.Add(2 * time.Minute)

	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.Get(ctx, "long")
	assert.NoError(t, err)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, repo.Sweep())
}

func TestSessionRepository_Delete(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, domain.NewSession("s1", time.Now(), time.Hour)))

	require.NoError(t, repo.Delete(ctx, "s1"))
	require.NoError(t, repo.Delete(ctx, "s1"))

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
