package domain

import "slices"

// Product is one normalized catalog row. Only EnhancedDescription changes
// after loading.
type Product struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	ImageURL            string   `json:"image_url"`
	Price               int64    `json:"price"`
	Description         string   `json:"description"`
	Stock               string   `json:"stock"`
	Size                string   `json:"size"`
	Colors              []string `json:"colors,omitempty"`
	EnhancedDescription string   `json:"enhanced_description,omitempty"`
}

// RequiresColor reports whether a color must be chosen before adding the
// product to a cart.
func (p Product) RequiresColor() bool {
	return len(p.Colors) > 0
}

// HasColor reports whether color is one of the product's colors.
func (p Product) HasColor(color string) bool {
	return slices.Contains(p.Colors, color)
}

// Enhanced reports whether generated text is already attached.
func (p Product) Enhanced() bool {
	return p.EnhancedDescription != ""
}
