// Package seed populates an empty catalog with the initial furnace range.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/furnacestore/storefront/internal/domain"
	"github.com/furnacestore/storefront/internal/repository"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
	"github.com/furnacestore/storefront/pkg/slug"
)

// ImagePath returns the public path of a seeded product image.
func ImagePath(res string) string {
	return "/static/images/" + res + ".jpg"
}

// CategoryName capitalizes the first letter of a furnace type and lowercases
// the rest.
func CategoryName(furnaceType string) string {
	s := strings.TrimSpace(furnaceType)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Notifier is told about products created by a seed run.
type Notifier interface {
	PublishProductsUpdated(ctx context.Context, products []domain.Product) error
}

// Result summarizes a seed run.
type Result struct {
	CategoriesCreated int
	ProductsCreated   []domain.Product
	ProductsSkipped   int
}

// Seeder inserts missing categories and products. Running it twice is safe:
// categories are matched by slug and products by name.
type Seeder struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	notifier   Notifier
	logger     *slog.Logger
}

// NewSeeder creates a seeder. notifier may be nil.
func NewSeeder(products repository.ProductRepository, categories repository.CategoryRepository, notifier Notifier, logger *slog.Logger) *Seeder {
	return &Seeder{products: products, categories: categories, notifier: notifier, logger: logger}
}

// Run seeds the given furnaces.
func (s *Seeder) Run(ctx context.Context, furnaces []Furnace) (*Result, error) {
	res := &Result{}

	byName, err := s.ensureCategories(ctx, furnaces, res)
	if err != nil {
		return nil, err
	}

	for _, f := range furnaces {
		_, err := s.products.GetByName(ctx, f.Name)
		if err == nil {
			res.ProductsSkipped++
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("lookup product %q: %w", f.Name, err)
		}

		info := f.Info
		image := ImagePath(f.ImageRes)
		p := domain.Product{
			Name:        f.Name,
			Description: &info,
			CategoryID:  byName[CategoryName(f.Type)].ID,
			ImageURL:    &image,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed product %q: %w", f.Name, err)
		}
		if err := s.products.Create(ctx, &p); err != nil {
			return nil, fmt.Errorf("create product %q: %w", f.Name, err)
		}
		res.ProductsCreated = append(res.ProductsCreated, p)
	}

	s.logger.InfoContext(ctx, "catalog seeded",
		slog.Int("categories_created", res.CategoriesCreated),
		slog.Int("products_created", len(res.ProductsCreated)),
		slog.Int("products_skipped", res.ProductsSkipped),
	)

	if s.notifier != nil && len(res.ProductsCreated) > 0 {
		if err := s.notifier.PublishProductsUpdated(ctx, res.ProductsCreated); err != nil {
			// The catalog is already written; cache entries expire on their own.
			s.logger.WarnContext(ctx, "failed to publish seeded products", slog.String("error", err.Error()))
		}
	}

	return res, nil
}

// RunIfEmpty seeds only when the catalog has no products. It reports whether
// seeding happened.
func (s *Seeder) RunIfEmpty(ctx context.Context, furnaces []Furnace) (bool, error) {
	existing, err := s.products.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list products: %w", err)
	}
	if len(existing) > 0 {
		s.logger.DebugContext(ctx, "catalog not empty, skipping seed", slog.Int("products", len(existing)))
		return false, nil
	}
	if _, err := s.Run(ctx, furnaces); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Seeder) ensureCategories(ctx context.Context, furnaces []Furnace, res *Result) (map[string]*domain.Category, error) {
	byName := make(map[string]*domain.Category)
	for _, f := range furnaces {
		name := CategoryName(f.Type)
		if _, ok := byName[name]; ok {
			continue
		}

		sl := slug.GenerateOr(f.Type, slug.Fallback)
		existing, err := s.categories.GetBySlug(ctx, sl)
		if err == nil {
			byName[name] = existing
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("lookup category %q: %w", sl, err)
		}

		c := &domain.Category{Name: name, Slug: sl}
		if err := s.categories.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("create category %q: %w", sl, err)
		}
		byName[name] = c
		res.CategoriesCreated++
	}
	return byName, nil
}
