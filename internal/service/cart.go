package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/furnacestore/storefront/internal/domain"
	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

var (
	cartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_operations_total",
		Help: "Cart operations by operation and result.",
	}, []string{"operation", "result"})

	// Entries dropped while hydrating because their product no longer exists.
	hydrateDroppedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_hydrate_dropped_entries_total",
		Help: "Cart entries omitted from a view because the product is not in the catalog.",
	})
)

// CatalogLookup is the read-only view of the catalog the cart needs.
// GetByID is authoritative. GetByIDs must return only existing products and
// must not fail for unknown ids; it may serve cached entries.
type CatalogLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

// CartService reconciles client-held carts against the catalog. It keeps no
// cart state: every operation takes a cart and returns a new one, leaving
// the argument untouched.
type CartService struct {
	catalog CatalogLookup
	logger  *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(catalog CatalogLookup, logger *slog.Logger) *CartService {
	return &CartService{catalog: catalog, logger: logger}
}

// Add adds quantityDelta units of productID. The product must exist in the
// catalog; GetByID implementations must answer from the catalog itself and
// not from a cache that can outlive a deletion. An existing entry is
// incremented in place; a new one is appended.
func (s *CartService) Add(ctx context.Context, cart *domain.Cart, productID int64, quantityDelta int) (*domain.Cart, error) {
	if err := validateProductID(productID); err != nil {
		return nil, s.fail("add", err)
	}
	if err := validateQuantity("quantityDelta", quantityDelta); err != nil {
		return nil, s.fail("add", err)
	}

	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, s.fail("add", productNotFound(productID))
		}
		return nil, s.fail("add", fmt.Errorf("look up product %d: %w", productID, err))
	}

	current, _ := cart.Get(productID)
	if current > math.MaxInt-quantityDelta {
		return nil, s.fail("add", apperrors.Validation("quantityDelta", "would overflow the cart quantity"))
	}

	out := cart.Clone()
	out.Set(productID, current+quantityDelta)

	s.logger.DebugContext(ctx, "cart item added",
		slog.Int64("product_id", productID),
		slog.Int("quantity", current+quantityDelta),
	)
	return out, s.ok("add")
}

// Update replaces the quantity of an entry already in the cart. The catalog
// is not consulted; a zero quantity keeps the entry.
func (s *CartService) Update(ctx context.Context, cart *domain.Cart, productID int64, quantity int) (*domain.Cart, error) {
	if err := validateProductID(productID); err != nil {
		return nil, s.fail("update", err)
	}
	if err := validateQuantity("quantity", quantity); err != nil {
		return nil, s.fail("update", err)
	}
	if !cart.Has(productID) {
		return nil, s.fail("update", productNotFound(productID))
	}

	out := cart.Clone()
	out.Set(productID, quantity)

	s.logger.DebugContext(ctx, "cart item updated",
		slog.Int64("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return out, s.ok("update")
}

// Remove deletes an entry from the cart without consulting the catalog.
func (s *CartService) Remove(ctx context.Context, cart *domain.Cart, productID int64) (*domain.Cart, error) {
	if err := validateProductID(productID); err != nil {
		return nil, s.fail("remove", err)
	}
	if !cart.Has(productID) {
		return nil, s.fail("remove", productNotFound(productID))
	}

	out := cart.Clone()
	out.Delete(productID)

	s.logger.DebugContext(ctx, "cart item removed", slog.Int64("product_id", productID))
	return out, s.ok("remove")
}

// Hydrate renders the cart with product details using one batched catalog
// read. Entries whose product is gone are left out of the view but stay in
// the cart.
func (s *CartService) Hydrate(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	view := &domain.CartView{Entries: []domain.CartEntry{}}
	if cart.Len() == 0 {
		return view, s.ok("view")
	}

	products, err := s.catalog.GetByIDs(ctx, cart.Keys())
	if err != nil {
		return nil, s.fail("view", fmt.Errorf("load cart products: %w", err))
	}

	byID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for id, qty := range cart.All() {
		p, ok := byID[id]
		if !ok {
			hydrateDroppedEntries.Inc()
			s.logger.DebugContext(ctx, "dropping cart entry for unknown product", slog.Int64("product_id", id))
			continue
		}
		view.Entries = append(view.Entries, domain.CartEntry{
			ProductID: id,
			Name:      p.Name,
			Quantity:  qty,
			ImageRef:  p.ImageURL,
		})
	}
	view.Count = len(view.Entries)
	return view, s.ok("view")
}

func (s *CartService) ok(op string) error {
	cartOperations.WithLabelValues(op, "ok").Inc()
	return nil
}

func (s *CartService) fail(op string, err error) error {
	result := "error"
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		result = "not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		result = "invalid"
	}
	cartOperations.WithLabelValues(op, result).Inc()
	return err
}

func validateProductID(id int64) error {
	if id <= 0 {
		return apperrors.Validation("productId", "must be greater than 0")
	}
	return nil
}

func validateQuantity(field string, q int) error {
	if q < 0 {
		return apperrors.Validation(field, "must be greater than or equal to 0")
	}
	return nil
}

func productNotFound(id int64) error {
	return apperrors.NotFound("product", strconv.FormatInt(id, 10))
}
