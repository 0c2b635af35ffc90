package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/furnacestore/storefront/internal/service"
	"github.com/furnacestore/storefront/pkg/httputil"
	"github.com/furnacestore/storefront/pkg/pagination"
)

// CatalogHandler handles the read-only product and category endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/v1/products
// Paging is applied only when page or per_page is given.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProducts(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}

// GetProduct handles GET /api/v1/products/{productId}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// ListProductsByCategory handles GET /api/v1/products/category/{categoryId}
func (h *CatalogHandler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := httputil.ParseID(w, "categoryId", chi.URLParam(r, "categoryId"))
	if !ok {
		return
	}

	list, err := h.service.ListProductsByCategory(r.Context(), categoryID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// GetCategory handles GET /api/v1/categories/{idOrSlug}
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}
