package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/furnacestore/storefront/internal/domain"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

// --- Mock catalog ---

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService() (*CartService, *mockCatalog) {
	catalog := new(mockCatalog)
	return NewCartService(catalog, newTestLogger()), catalog
}

func strPtr(s string) *string { return &s }

func product(id int64, name string) *domain.Product {
	return &domain.Product{ID: id, Name: name, CategoryID: 1, ImageURL: strPtr("/static/images/" + name + ".jpg")}
}

func quantity(t *testing.T, c *domain.Cart, id int64) int {
	t.Helper()
	q, ok := c.Get(id)
	require.True(t, ok, "product %d missing from cart", id)
	return q
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Fields, field)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// --- Add ---

func TestAdd_NewEntryAppended(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByID", ctx, int64(7)).Return(product(7, "ИПП-60"), nil).Once()

	in := domain.CartOf(3, 1)
	out, err := svc.Add(ctx, in, 7, 2)

	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7}, out.Keys())
	assert.Equal(t, 2, quantity(t, out, 7))
	assert.Equal(t, []int64{3}, in.Keys(), "input cart must not change")
	catalog.AssertExpectations(t)
	catalog.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestAdd_MergesExistingEntry(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByID", ctx, int64(1)).Return(product(1, "a"), nil)

	in := domain.CartOf(1, 2, 4, 1)
	out, err := svc.Add(ctx, in, 1, 3)

	require.NoError(t, err)
	assert.Equal(t, 5, quantity(t, out, 1))
	assert.Equal(t, []int64{1, 4}, out.Keys(), "merged entry keeps its position")
	assert.Equal(t, 2, quantity(t, in, 1))
}

func TestAdd_ZeroDelta(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByID", ctx, int64(1)).Return(product(1, "a"), nil)

	out, err := svc.Add(ctx, domain.NewCart(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, quantity(t, out, 1))
}

func TestAdd_MergeAddLaw(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByID", ctx, int64(9)).Return(product(9, "a"), nil)

	for _, tc := range []struct{ start, a, b int }{{0, 1, 1}, {2, 3, 4}, {5, 0, 7}} {
		base := domain.CartOf(9, int64(tc.start))

		step1, err := svc.Add(ctx, base, 9, tc.a)
		require.NoError(t, err)
		twice, err := svc.Add(ctx, step1, 9, tc.b)
		require.NoError(t, err)

		once, err := svc.Add(ctx, base, 9, tc.a+tc.b)
		require.NoError(t, err)

		assert.Equal(t, quantity(t, once, 9), quantity(t, twice, 9))
	}
}

func TestAdd_ProductNotFound(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByID", ctx, int64(99)).Return(nil, apperrors.NotFound("product", "99"))

	in := domain.CartOf(1, 2)
	out, err := svc.Add(ctx, in, 99, 1)

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "99")
	assert.Equal(t, []int64{1}, in.Keys())
	assert.Equal(t, 2, quantity(t, in, 1))
}

func TestAdd_CatalogFailure(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByID", ctx, int64(1)).Return(nil, errors.New("connection refused"))

	_, err := svc.Add(ctx, domain.NewCart(), 1, 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 500, apperrors.HTTPStatus(err))
}

func TestAdd_ValidationBeforeLookup(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.NewCart(), 1, -1)
	assertFieldError(t, err, "quantityDelta")

	_, err = svc.Add(ctx, domain.NewCart(), 0, 1)
	assertFieldError(t, err, "productId")

	catalog.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// --- Update ---

func TestUpdate_ReplacesQuantity(t *testing.T) {
	svc, catalog := newTestService()

	in := domain.CartOf(1, 2, 5, 1)
	out, err := svc.Update(context.Background(), in, 1, 8)

	require.NoError(t, err)
	assert.Equal(t, 8, quantity(t, out, 1))
	assert.Equal(t, []int64{1, 5}, out.Keys())
	assert.Equal(t, 2, quantity(t, in, 1))
	catalog.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdate_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	once, err := svc.Update(ctx, domain.CartOf(1, 2), 1, 4)
	require.NoError(t, err)
	twice, err := svc.Update(ctx, once, 1, 4)
	require.NoError(t, err)

	assert.Equal(t, once.Keys(), twice.Keys())
	assert.Equal(t, quantity(t, once, 1), quantity(t, twice, 1))
}

func TestUpdate_ZeroKeepsEntry(t *testing.T) {
	svc, _ := newTestService()

	out, err := svc.Update(context.Background(), domain.CartOf(1, 2), 1, 0)
	require.NoError(t, err)
	assert.True(t, out.Has(1))
	assert.Equal(t, 0, quantity(t, out, 1))
}

func TestUpdate_NotInCart(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Update(context.Background(), domain.CartOf(1, 2), 3, 1)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdate_NegativeQuantity(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Update(context.Background(), domain.CartOf(1, 2), 1, -5)
	assertFieldError(t, err, "quantity")
}

// --- Remove ---

func TestRemove_DeletesEntry(t *testing.T) {
	svc, catalog := newTestService()

	in := domain.CartOf(1, 2, 2, 3)
	out, err := svc.Remove(context.Background(), in, 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, out.Keys())
	assert.True(t, in.Has(1))
	catalog.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRemove_NotInCart(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Remove(context.Background(), domain.NewCart(), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- Hydrate ---

func TestHydrate_EmptyCartSkipsCatalog(t *testing.T) {
	svc, catalog := newTestService()

	view, err := svc.Hydrate(context.Background(), domain.NewCart())
	require.NoError(t, err)
	assert.NotNil(t, view.Entries)
	assert.Empty(t, view.Entries)
	assert.Equal(t, 0, view.Count)

	view, err = svc.Hydrate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Count)

	catalog.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestHydrate_FollowsCartOrder(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByIDs", ctx, []int64{5, 2}).
		Return([]domain.Product{*product(2, "ИСТ-160"), *product(5, "ИПП-60")}, nil).Once()

	view, err := svc.Hydrate(ctx, domain.CartOf(5, 1, 2, 3))
	require.NoError(t, err)

	require.Len(t, view.Entries, 2)
	assert.Equal(t, domain.CartEntry{ProductID: 5, Name: "ИПП-60", Quantity: 1, ImageRef: strPtr("/static/images/ИПП-60.jpg")}, view.Entries[0])
	assert.Equal(t, int64(2), view.Entries[1].ProductID)
	assert.Equal(t, 3, view.Entries[1].Quantity)
	assert.Equal(t, 2, view.Count)
	catalog.AssertExpectations(t)
}

func TestHydrate_DropsDeletedProducts(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByIDs", ctx, []int64{1, 2}).Return([]domain.Product{*product(1, "a")}, nil)

	before := counterValue(t, hydrateDroppedEntries)
	cart := domain.CartOf(1, 2, 2, 3)
	view, err := svc.Hydrate(ctx, cart)

	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, int64(1), view.Entries[0].ProductID)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, 2, cart.Len(), "hydration never edits the cart")
	assert.InDelta(t, before+1, counterValue(t, hydrateDroppedEntries), 0.001)
}

func TestHydrate_ProductWithoutImage(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByIDs", ctx, []int64{1}).Return([]domain.Product{{ID: 1, Name: "a"}}, nil)

	view, err := svc.Hydrate(ctx, domain.CartOf(1, 1))
	require.NoError(t, err)
	assert.Nil(t, view.Entries[0].ImageRef)
}

func TestHydrate_CatalogFailure(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByIDs", ctx, []int64{1}).Return(nil, errors.New("timeout"))

	_, err := svc.Hydrate(ctx, domain.CartOf(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

// --- Scenarios ---

func TestCartScenario_FullLifecycle(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByID", ctx, int64(1)).Return(product(1, "a"), nil)
	catalog.On("GetByIDs", ctx, []int64{1}).Return([]domain.Product{*product(1, "a")}, nil)

	cart := domain.NewCart()

	cart, err := svc.Add(ctx, cart, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, quantity(t, cart, 1))

	cart, err = svc.Add(ctx, cart, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, quantity(t, cart, 1))

	cart, err = svc.Update(ctx, cart, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, quantity(t, cart, 1))

	view, err := svc.Hydrate(ctx, cart)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)

	cart, err = svc.Remove(ctx, cart, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Len())

	view, err = svc.Hydrate(ctx, cart)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Count)
	catalog.AssertNumberOfCalls(t, "GetByIDs", 1)
}

func TestCartScenario_RemoveThenHydrateOmitsProduct(t *testing.T) {
	svc, catalog := newTestService()
	ctx := context.Background()
	catalog.On("GetByIDs", ctx, []int64{2}).Return([]domain.Product{*product(2, "b")}, nil)

	cart, err := svc.Remove(ctx, domain.CartOf(1, 1, 2, 1), 1)
	require.NoError(t, err)

	view, err := svc.Hydrate(ctx, cart)
	require.NoError(t, err)
	for _, e := range view.Entries {
		assert.NotEqual(t, int64(1), e.ProductID)
	}
	assert.LessOrEqual(t, view.Count, cart.Len())
}
