package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alphabotai/webappshop/internal/catalog"
	"github.com/alphabotai/webappshop/internal/domain"
	"github.com/alphabotai/webappshop/internal/service"
	"github.com/alphabotai/webappshop/pkg/httputil"
	"github.com/alphabotai/webappshop/pkg/pagination"
)

// ProductCatalog is the catalog as used by the HTTP layer.
type ProductCatalog interface {
	List() ([]domain.Product, error)
	Reload(ctx context.Context) error
	Status() catalog.Status
}

// CatalogHandler handles HTTP requests for catalog endpoints.
type CatalogHandler struct {
	catalog  ProductCatalog
	enhancer *service.EnhancerService
	logger   *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(c ProductCatalog, enhancer *service.EnhancerService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, enhancer: enhancer, logger: logger}
}

// List handles GET /api/v1/catalog. Without per_page every product is
// returned in sheet order.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.Paginate(products, pagination.FromRequest(r)))
}

// Reload handles POST /api/v1/catalog/reload
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.catalog.Status())
}

// Enhance handles POST /api/v1/catalog/{id}/enhance
func (h *CatalogHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteBadRequest(w, "product id is required")
		return
	}

	product, err := h.enhancer.Enhance(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}
