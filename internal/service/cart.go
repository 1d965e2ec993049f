package service

import (
	"context"
	"fmt"

	"github.com/alphabotai/webappshop/internal/domain"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
)

// Cart limits.
const (
	MaxQuantityPerEntry = 100
	MaxEntriesPerCart   = 50
)

// MsgChooseColor is shown when a product with colors is added without one.
const MsgChooseColor = "please choose a color"

// AddItemInput holds the parameters for adding a product to the cart.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Color     string `json:"color" validate:"omitempty,max=64"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=100"`
}

// AddItem appends a snapshot of the product to the cart. Adding the same
// product again creates another entry.
func (s *SessionService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*SessionView, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity < 0 || input.Quantity > MaxQuantityPerEntry {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must be between 1 and %d", MaxQuantityPerEntry))
	}

	product, err := s.catalog.Get(input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkColor(product, input.Color); err != nil {
		return nil, err
	}

	sess, err := s.mutate(ctx, sessionID, func(sess *domain.Session) error {
		if sess.Cart.Len() >= MaxEntriesPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("a cart holds at most %d entries", MaxEntriesPerCart))
		}
		sess.Cart.Append(domain.CartEntry{
			Product:       product,
			SelectedColor: input.Color,
			Quantity:      input.Quantity,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// RemoveItem deletes the cart entry at index.
func (s *SessionService) RemoveItem(ctx context.Context, sessionID string, index int) (*SessionView, error) {
	sess, err := s.mutate(ctx, sessionID, func(sess *domain.Session) error {
		if err := sess.Cart.Remove(index); err != nil {
			return apperrors.NotFound("cart entry", fmt.Sprint(index))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func checkColor(p domain.Product, color string) error {
	switch {
	case p.RequiresColor() && color == "":
		return apperrors.InvalidInput(MsgChooseColor)
	case p.RequiresColor() && !p.HasColor(color):
		return apperrors.InvalidInput(fmt.Sprintf("color %q is not available for %s", color, p.Name))
	case !p.RequiresColor() && color != "":
		return apperrors.InvalidInput(fmt.Sprintf("%s has no color options", p.Name))
	}
	return nil
}
