package domain

import (
	"time"
	"unicode/utf8"

	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

// Field limits for catalog products.
const (
	MaxProductNameLength        = 100
	MaxProductDescriptionLength = 200
)

// Product is a catalog entry. Category is populated when the product is
// loaded together with its category.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CategoryID  int64     `json:"category_id"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Category    *Category `json:"category,omitempty"`
}

// Validate checks the name and description length limits.
func (p *Product) Validate() error {
	if n := utf8.RuneCountInString(p.Name); n < 1 || n > MaxProductNameLength {
		return apperrors.Validation("name", "must be between 1 and 100 characters")
	}
	if p.Description != nil {
		if n := utf8.RuneCountInString(*p.Description); n < 1 || n > MaxProductDescriptionLength {
			return apperrors.Validation("description", "must be between 1 and 200 characters")
		}
	}
	if p.CategoryID <= 0 {
		return apperrors.Validation("category_id", "must be a positive integer")
	}
	return nil
}

// Category groups products. Slug is unique.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductList is the response shape for product listings.
type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}
