package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/furnacestore/storefront/internal/domain"
	"github.com/furnacestore/storefront/internal/repository"
	"github.com/furnacestore/storefront/pkg/pagination"
)

// CatalogService serves the read-only product and category API.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{products: products, categories: categories, logger: logger}
}

// ListProducts returns one page of products, or all of them when paging is
// not requested. Total counts the whole catalog.
func (s *CatalogService) ListProducts(ctx context.Context, page pagination.Params) (*domain.ProductList, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &domain.ProductList{Products: pagination.Apply(all, page), Total: len(all)}, nil
}

// GetProduct returns a product with its category.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListProductsByCategory returns the products of a category. An unknown
// category yields an empty list.
func (s *CatalogService) ListProductsByCategory(ctx context.Context, categoryID int64) (*domain.ProductList, error) {
	products, err := s.products.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return &domain.ProductList{Products: products, Total: len(products)}, nil
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory resolves a category by numeric id or, failing that, by slug.
func (s *CatalogService) GetCategory(ctx context.Context, idOrSlug string) (*domain.Category, error) {
	var (
		c   *domain.Category
		err error
	)
	if id, parseErr := strconv.ParseInt(idOrSlug, 10, 64); parseErr == nil {
		c, err = s.categories.GetByID(ctx, id)
	} else {
		c, err = s.categories.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}
