package service

import (
	"context"
	"log/slog"

	"github.com/alphabotai/webappshop/internal/domain"
	"github.com/alphabotai/webappshop/internal/enhancer"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
)

// Error codes returned by the description enhancer.
const (
	CodeEnhancementInProgress = "ENHANCEMENT_IN_PROGRESS"
	CodeEnhancementFailed     = "ENHANCEMENT_FAILED"
	CodeEnhancerDisabled      = "ENHANCER_DISABLED"
)

// EnhanceableCatalog is the catalog as seen by the enhancer.
type EnhanceableCatalog interface {
	Get(id string) (domain.Product, error)
	SetEnhancedDescription(id, text string) (domain.Product, error)
}

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EnhancerService attaches generated descriptions to catalog products.
type EnhancerService struct {
	catalog   EnhanceableCatalog
	generator TextGenerator
	logger    *slog.Logger
	inflight  *inflight
}

// NewEnhancerService creates the service. A nil generator disables it.
func NewEnhancerService(catalog EnhanceableCatalog, generator TextGenerator, logger *slog.Logger) *EnhancerService {
	return &EnhancerService{
		catalog:   catalog,
		generator: generator,
		logger:    logger,
		inflight:  newInflight(),
	}
}

// Enabled reports whether a generator is configured.
func (s *EnhancerService) Enabled() bool {
	return s.generator != nil
}

// Enhance generates a description for the product. A product that already
// has one is returned unchanged. A failed call leaves the product as it was.
func (s *EnhancerService) Enhance(ctx context.Context, productID string) (domain.Product, error) {
	if !s.Enabled() {
		return domain.Product{}, apperrors.ServiceUnavailable(CodeEnhancerDisabled, "description enhancement is not configured")
	}

	product, err := s.catalog.Get(productID)
	if err != nil {
		return domain.Product{}, err
	}
	if product.Enhanced() {
		return product, nil
	}

	if !s.inflight.acquire(productID) {
		return domain.Product{}, apperrors.Conflict(CodeEnhancementInProgress, "this description is already being enhanced")
	}
	defer s.inflight.release(productID)

	// An enhancement that finished between the first read and acquire wins.
	product, err = s.catalog.Get(productID)
	if err != nil {
		return domain.Product{}, err
	}
	if product.Enhanced() {
		return product, nil
	}

	text, err := s.generator.Generate(context.WithoutCancel(ctx), enhancer.Prompt(product.Name, product.Description))
	if err != nil {
		enhancements.WithLabelValues("failed").Inc()
		s.logger.ErrorContext(ctx, "description enhancement failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return domain.Product{}, apperrors.Upstream(CodeEnhancementFailed, "description could not be enhanced: "+err.Error(), err)
	}
	enhancements.WithLabelValues("ok").Inc()

	updated, err := s.catalog.SetEnhancedDescription(productID, text)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.InfoContext(ctx, "description enhanced", slog.String("product_id", productID))
	return updated, nil
}
