package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furnacestore/storefront/internal/domain"
	"github.com/furnacestore/storefront/internal/repository/memory"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
	"github.com/furnacestore/storefront/pkg/pagination"
)

func newCatalogService(t *testing.T) *CatalogService {
	t.Helper()
	ctx := context.Background()
	cats := memory.NewCategoryRepository()
	prods := memory.NewProductRepository(cats)

	black := &domain.Category{Name: "Черная", Slug: "chernaya"}
	color := &domain.Category{Name: "Цветная", Slug: "tsvetnaya"}
	require.NoError(t, cats.Create(ctx, black))
	require.NoError(t, cats.Create(ctx, color))
	for i, cat := range []int64{black.ID, black.ID, color.ID, black.ID, color.ID} {
		require.NoError(t, prods.Create(ctx, &domain.Product{Name: "p" + string(rune('a'+i)), CategoryID: cat}))
	}
	return NewCatalogService(prods, cats, newTestLogger())
}

func TestCatalogService_ListProducts_All(t *testing.T) {
	svc := newCatalogService(t)

	list, err := svc.ListProducts(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 5, list.Total)
	assert.Len(t, list.Products, 5)
	assert.NotNil(t, list.Products[0].Category)
}

func TestCatalogService_ListProducts_Paged(t *testing.T) {
	svc := newCatalogService(t)

	list, err := svc.ListProducts(context.Background(), pagination.Params{Page: 2, PerPage: 2, Offset: 2, Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, 5, list.Total)
	require.Len(t, list.Products, 2)
	assert.Equal(t, int64(3), list.Products[0].ID)
}

func TestCatalogService_GetProduct(t *testing.T) {
	svc := newCatalogService(t)

	p, err := svc.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "tsvetnaya", p.Category.Slug)

	_, err = svc.GetProduct(context.Background(), 42)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCatalogService_ListProductsByCategory(t *testing.T) {
	svc := newCatalogService(t)

	list, err := svc.ListProductsByCategory(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	list, err = svc.ListProductsByCategory(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Products)
}

func TestCatalogService_Categories(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	all, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	c, err := svc.GetCategory(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "tsvetnaya", c.Slug)

	c, err = svc.GetCategory(ctx, "chernaya")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	_, err = svc.GetCategory(ctx, "unknown")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
