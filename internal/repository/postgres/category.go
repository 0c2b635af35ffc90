package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/furnacestore/storefront/internal/domain"
	"github.com/furnacestore/storefront/pkg/database"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category and sets its ID.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	const query = `INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`
	ctx, done := database.Trace(ctx, database.Query{Op: "CreateCategory", Table: "categories", SQL: query})
	defer func() { done(1, err) }()

	if err = r.pool.QueryRow(ctx, query, c.Name, c.Slug).Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by its identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return r.getOne(ctx, "GetCategoryByID", `SELECT id, name, slug FROM categories WHERE id = $1`, strconv.FormatInt(id, 10), id)
}

// GetBySlug retrieves a category by its slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.getOne(ctx, "GetCategoryBySlug", `SELECT id, name, slug FROM categories WHERE slug = $1`, slug, slug)
}

func (r *CategoryRepository) getOne(ctx context.Context, op, query, key string, arg any) (*domain.Category, error) {
	ctx, done := database.Trace(ctx, database.Query{Op: op, Table: "categories", SQL: query})
	var c domain.Category
	err := r.pool.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Slug)
	done(1, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", key)
		}
		return nil, fmt.Errorf("get category %s: %w", key, err)
	}
	return &c, nil
}

// List returns all categories ordered by id.
func (r *CategoryRepository) List(ctx context.Context) (categories []domain.Category, err error) {
	const query = `SELECT id, name, slug FROM categories ORDER BY id`
	ctx, done := database.Trace(ctx, database.Query{Op: "ListCategories", Table: "categories", SQL: query})
	defer func() { done(len(categories), err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories = make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err = rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}
