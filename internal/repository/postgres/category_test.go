package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furnacestore/storefront/internal/domain"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

var categoryColumns = []string{"id", "name", "slug"}

func TestCategoryRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	c := &domain.Category{Name: "Черная", Slug: "chernaya"}
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("Черная", "chernaya").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(1), c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Create_DuplicateSlug(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("Черная", "chernaya").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err := repo.Create(context.Background(), &domain.Category{Name: "Черная", Slug: "chernaya"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestCategoryRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(`SELECT id, name, slug FROM categories WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(categoryColumns).AddRow(int64(2), "Цветная", "tsvetnaya"))

	c, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Category{ID: 2, Name: "Цветная", Slug: "tsvetnaya"}, *c)
}

func TestCategoryRepository_GetBySlug_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(`WHERE slug = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCategoryRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery("SELECT id, name, slug FROM categories ORDER BY id").
		WillReturnRows(pgxmock.NewRows(categoryColumns).
			AddRow(int64(1), "Черная", "chernaya").
			AddRow(int64(2), "Цветная", "tsvetnaya"))

	categories, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "tsvetnaya", categories[1].Slug)
	require.NoError(t, mock.ExpectationsWereMet())
}
