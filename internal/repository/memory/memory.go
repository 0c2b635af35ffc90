// Package memory provides process-local catalog repositories. They back the
// "memory" catalog backend and are convenient in tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/furnacestore/storefront/internal/domain"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

// CategoryRepository stores categories in a map guarded by a mutex.
type CategoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Category
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{byID: make(map[int64]domain.Category)}
}

func (r *CategoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Slug == c.Slug {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
	}
	r.nextID++
	c.ID = r.nextID
	r.byID[c.ID] = *c
	return nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("category", strconv.FormatInt(id, 10))
	}
	return &c, nil
}

func (r *CategoryRepository) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.byID {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("category", slug)
}

func (r *CategoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Category, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *CategoryRepository) get(id int64) (domain.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// ProductRepository stores products in memory and resolves their category
// through a CategoryRepository.
type ProductRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]domain.Product
	categories *CategoryRepository
	now        func() time.Time
}

func NewProductRepository(categories *CategoryRepository) *ProductRepository {
	return &ProductRepository{
		byID:       make(map[int64]domain.Product),
		categories: categories,
		now:        time.Now,
	}
}

// Create rejects products whose category does not exist, matching the
// foreign key in the SQL schema.
func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	if _, ok := r.categories.get(p.CategoryID); !ok {
		return apperrors.NotFound("category", strconv.FormatInt(p.CategoryID, 10))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = r.now().UTC()
	stored := *p
	stored.Category = nil
	r.byID[p.ID] = stored
	return nil
}

// Delete removes a product. It reports whether the product existed.
func (r *ProductRepository) Delete(_ context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byID[id]
	delete(r.byID, id)
	return ok
}

func (r *ProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	p, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("product", strconv.FormatInt(id, 10))
	}
	return r.withCategory(p), nil
}

func (r *ProductRepository) GetByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return slices.Contains(ids, p.ID) }), nil
}

func (r *ProductRepository) GetByName(_ context.Context, name string) (*domain.Product, error) {
	matches := r.filter(func(p domain.Product) bool { return p.Name == name })
	if len(matches) == 0 {
		return nil, apperrors.NotFound("product", name)
	}
	return &matches[0], nil
}

func (r *ProductRepository) List(_ context.Context) ([]domain.Product, error) {
	return r.filter(func(domain.Product) bool { return true }), nil
}

func (r *ProductRepository) ListByCategory(_ context.Context, categoryID int64) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.CategoryID == categoryID }), nil
}

// filter returns matching products ordered by id with categories attached.
func (r *ProductRepository) filter(keep func(domain.Product) bool) []domain.Product {
	r.mu.RLock()
	matched := make([]domain.Product, 0)
	for _, p := range r.byID {
		if keep(p) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	for i := range matched {
		matched[i] = *r.withCategory(matched[i])
	}
	return matched
}

func (r *ProductRepository) withCategory(p domain.Product) *domain.Product {
	if c, ok := r.categories.get(p.CategoryID); ok {
		p.Category = &c
	}
	return &p
}
