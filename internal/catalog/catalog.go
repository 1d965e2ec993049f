package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alphabotai/webappshop/internal/domain"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
)

// CodeUnavailable is the error code answered while no catalog is loaded.
const CodeUnavailable = "CATALOG_UNAVAILABLE"

// Fetcher loads the full product list.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Product, error)
}

// Status describes the last load attempt.
type Status struct {
	Loaded    bool      `json:"loaded"`
	Products  int       `json:"products"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Catalog holds the products shared by every session.
type Catalog struct {
	fetcher Fetcher
	logger  *slog.Logger
	group   singleflight.Group

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
	loaded   bool
	loadedAt time.Time
	lastErr  error
}

// New creates an empty catalog. Call Reload to load it.
func New(fetcher Fetcher, logger *slog.Logger) *Catalog {
	return &Catalog{fetcher: fetcher, logger: logger}
}

// Reload fetches the sheet again. Concurrent calls share one fetch. When a
// reload fails after an earlier success the previous products stay served.
func (c *Catalog) Reload(ctx context.Context) error {
	_, err, _ := c.group.Do("reload", func() (any, error) {
		products, err := c.fetcher.Fetch(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()

		c.lastErr = err
		if err != nil {
			c.logger.ErrorContext(ctx, "catalog load failed",
				slog.String("error", err.Error()),
				slog.Bool("serving_previous", c.loaded),
			)
			return nil, err
		}

		c.products = products
		c.byID = make(map[string]int, len(products))
		for i, p := range products {
			if _, dup := c.byID[p.ID]; dup {
				c.logger.WarnContext(ctx, "duplicate product id in catalog", slog.String("product_id", p.ID))
				continue
			}
			c.byID[p.ID] = i
		}
		c.loaded = true
		c.loadedAt = time.Now().UTC()

		c.logger.InfoContext(ctx, "catalog loaded", slog.Int("products", len(products)))
		return nil, nil
	})
	if err != nil {
		appErr := unavailable()
		appErr.Err = fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, err)
		return appErr
	}
	return nil
}

// Ready returns nil once a catalog has been loaded.
func (c *Catalog) Ready(context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return unavailable()
	}
	return nil
}

// List returns a copy of the products in sheet order.
func (c *Catalog) List() ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, unavailable()
	}
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// Get returns the product with id.
func (c *Catalog) Get(id string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return domain.Product{}, unavailable()
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return c.products[i], nil
}

// SetEnhancedDescription attaches generated text to a product.
func (c *Catalog) SetEnhancedDescription(id, text string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return domain.Product{}, unavailable()
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	c.products[i].EnhancedDescription = text
	return c.products[i], nil
}

// Status reports the load state.
func (c *Catalog) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Status{Loaded: c.loaded, Products: len(c.products), LoadedAt: c.loadedAt}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

func unavailable() *apperrors.AppError {
	return apperrors.ServiceUnavailable(CodeUnavailable, "the product catalog could not be loaded, reload to try again")
}
