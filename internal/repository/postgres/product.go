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

// productSelect joins each product with its category.
const productSelect = `
	SELECT p.id, p.name, p.description, p.category_id, p.image_url, p.created_at,
	       c.id, c.name, c.slug
	FROM products p
	JOIN categories c ON c.id = p.category_id`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product and sets its ID and CreatedAt.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	const query = `
		INSERT INTO products (name, description, category_id, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	ctx, done := database.Trace(ctx, database.Query{Op: "CreateProduct", Table: "products", SQL: query})
	defer func() { done(1, err) }()

	err = r.pool.QueryRow(ctx, query, p.Name, p.Description, p.CategoryID, p.ImageURL).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product with its category.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.getOne(ctx, "GetProductByID", productSelect+` WHERE p.id = $1`, strconv.FormatInt(id, 10), id)
}

// GetByName retrieves the first product with exactly this name.
func (r *ProductRepository) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	return r.getOne(ctx, "GetProductByName", productSelect+` WHERE p.name = $1 ORDER BY p.id LIMIT 1`, name, name)
}

func (r *ProductRepository) getOne(ctx context.Context, op, query, key string, arg any) (*domain.Product, error) {
	ctx, done := database.Trace(ctx, database.Query{Op: op, Table: "products", SQL: query})
	p, err := scanProduct(r.pool.QueryRow(ctx, query, arg))
	done(1, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", key)
		}
		return nil, fmt.Errorf("get product %s: %w", key, err)
	}
	return p, nil
}

// GetByIDs loads all products whose id is in ids in a single query.
// Ids without a matching row are omitted from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	return r.list(ctx, "GetProductsByIDs", productSelect+` WHERE p.id = ANY($1) ORDER BY p.id`, ids)
}

// List returns all products ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, "ListProducts", productSelect+` ORDER BY p.id`)
}

// ListByCategory returns the products of one category ordered by id.
func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	return r.list(ctx, "ListProductsByCategory", productSelect+` WHERE p.category_id = $1 ORDER BY p.id`, categoryID)
}

func (r *ProductRepository) list(ctx context.Context, op, query string, args ...any) (products []domain.Product, err error) {
	ctx, done := database.Trace(ctx, database.Query{Op: op, Table: "products", SQL: query})
	defer func() { done(len(products), err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0)
	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			err = fmt.Errorf("scan product row: %w", scanErr)
			return nil, err
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p domain.Product
		c domain.Category
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CategoryID,
		&p.ImageURL,
		&p.CreatedAt,
		&c.ID,
		&c.Name,
		&c.Slug,
	); err != nil {
		return nil, err
	}
	p.Category = &c
	return &p, nil
}
