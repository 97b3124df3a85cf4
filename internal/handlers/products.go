package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/platform/httpx"
	"github.com/roastline/api/internal/services"
)

// ProductHandlers serves the customer-facing catalog endpoints. Only
// active products are ever visible through this surface.
type ProductHandlers struct {
	catalog services.CatalogService
}

// NewProductHandlers constructs the public catalog handlers.
func NewProductHandlers(catalog services.CatalogService) (*ProductHandlers, error) {
	if catalog == nil {
		return nil, errors.New("handlers: catalog service is required")
	}
	return &ProductHandlers{catalog: catalog}, nil
}

// Routes registers the public catalog endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{productID}", h.Get)
}

// List returns active products, optionally narrowed by category or search term.
func (h *ProductHandlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	pagination, err := parsePagination(query)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.ProductListFilter{
		Status:     domain.ProductStatusActive,
		Category:   strings.TrimSpace(query.Get("category")),
		Search:     strings.TrimSpace(query.Get("q")),
		Pagination: pagination,
	}

	page, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	response := productListResponse{
		Items: make([]productPayload, 0, len(page.Items)),
		Total: page.Total,
	}
	for _, product := range page.Items {
		response.Items = append(response.Items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// Get returns a single active product. Inactive products are reported as
// missing so that retired items disappear from the storefront.
func (h *ProductHandlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if product.Status != domain.ProductStatusActive {
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", "product was modified concurrently", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}
