package repository

import (
	"context"

	"github.com/furnacestore/storefront/internal/domain"
)

// ProductLookup is the read path used by the cart engine. GetByIDs returns
// only the products that exist; missing ids are not an error.
type ProductLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

// ProductRepository defines the interface for product persistence operations.
// Products are returned with their Category populated.
type ProductRepository interface {
	ProductLookup

	// Create inserts a product and sets its ID and CreatedAt.
	Create(ctx context.Context, product *domain.Product) error

	// GetByName is used by seeding to skip products that already exist.
	GetByName(ctx context.Context, name string) (*domain.Product, error)

	// List returns all products ordered by id.
	List(ctx context.Context) ([]domain.Product, error)

	// ListByCategory returns the products of one category ordered by id.
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	// Create inserts a category and sets its ID. A duplicate slug yields
	// an ALREADY_EXISTS error.
	Create(ctx context.Context, category *domain.Category) error

	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// List returns all categories ordered by id.
	List(ctx context.Context) ([]domain.Category, error)
}
