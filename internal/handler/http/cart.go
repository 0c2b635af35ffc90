package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/furnacestore/storefront/internal/domain"
	"github.com/furnacestore/storefront/internal/service"
	"github.com/furnacestore/storefront/pkg/httputil"
	"github.com/furnacestore/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints. The cart travels in
// every request body and comes back in every response; nothing is stored.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CartRequest carries only the client's cart.
type CartRequest struct {
	Cart *domain.Cart `json:"cart"`
}

// AddToCartRequest is the JSON request body for adding a product.
type AddToCartRequest struct {
	ProductID     int64        `json:"productId"`
	QuantityDelta *int         `json:"quantityDelta" validate:"required"`
	Cart          *domain.Cart `json:"cart"`
}

// UpdateCartRequest is the JSON request body for setting a quantity.
type UpdateCartRequest struct {
	ProductID int64        `json:"productId"`
	Quantity  *int         `json:"quantity" validate:"required"`
	Cart      *domain.Cart `json:"cart"`
}

// CartResponse wraps the resulting cart.
type CartResponse struct {
	Cart *domain.Cart `json:"cart"`
}

// --- Handlers ---

// ViewCart handles POST /api/v1/cart/view
func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.Hydrate(r.Context(), cartOrEmpty(req.Cart))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// AddToCart handles POST /api/v1/cart/add
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.Add(r.Context(), cartOrEmpty(req.Cart), req.ProductID, *req.QuantityDelta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: CartResponse{Cart: cart}})
}

// UpdateCart handles PUT /api/v1/cart/update
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.Update(r.Context(), cartOrEmpty(req.Cart), req.ProductID, *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CartResponse{Cart: cart}})
}

// RemoveFromCart handles DELETE /api/v1/cart/remove/{productId}
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req CartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.Remove(r.Context(), cartOrEmpty(req.Cart), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CartResponse{Cart: cart}})
}

// cartOrEmpty treats a missing or null cart as an empty one.
func cartOrEmpty(c *domain.Cart) *domain.Cart {
	if c == nil {
		return domain.NewCart()
	}
	return c
}
