package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/platform/httpx"
	"github.com/roastline/api/internal/services"
)

// AdminCatalogHandlers serves the back-office catalog endpoints:
// creation, edits, activation and restocking.
type AdminCatalogHandlers struct {
	catalog services.CatalogService
}

// NewAdminCatalogHandlers constructs the admin catalog handlers.
func NewAdminCatalogHandlers(catalog services.CatalogService) (*AdminCatalogHandlers, error) {
	if catalog == nil {
		return nil, errors.New("handlers: catalog service is required")
	}
	return &AdminCatalogHandlers{catalog: catalog}, nil
}

// Routes registers the admin catalog endpoints. Callers are expected to
// have passed a staff or admin RequireAuth gate already.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	r.Route("/products", func(g chi.Router) {
		g.Get("/", h.List)
		g.Post("/", h.Create)
		g.Get("/{productID}", h.Get)
		g.Put("/{productID}", h.Update)
		g.Post("/{productID}:status", h.SetStatus)
		g.Post("/{productID}:restock", h.Restock)
	})
}

type sizeVariantRequest struct {
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

type createProductRequest struct {
	Name              string                        `json:"name"`
	Description       string                        `json:"description"`
	Category          string                        `json:"category"`
	Sizes             map[string]sizeVariantRequest `json:"sizes"`
	LowStockThreshold int                           `json:"low_stock_threshold"`
}

type updateProductRequest struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Category          string            `json:"category"`
	Prices            map[string]string `json:"prices"`
	LowStockThreshold int               `json:"low_stock_threshold"`
}

type setProductStatusRequest struct {
	Status string `json:"status"`
}

type restockRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// List returns products in any status with the full admin filter set.
func (h *AdminCatalogHandlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	pagination, err := parsePagination(query)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.ProductListFilter{
		Status:       domain.ProductStatus(strings.ToLower(strings.TrimSpace(query.Get("status")))),
		Category:     strings.TrimSpace(query.Get("category")),
		Search:       strings.TrimSpace(query.Get("q")),
		LowStockOnly: strings.EqualFold(query.Get("low_stock_only"), "true"),
		Pagination:   pagination,
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

// Get returns any product by id, including inactive ones.
func (h *AdminCatalogHandlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := requireProductID(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

// Create adds a new product with its size variants.
func (h *AdminCatalogHandlers) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var payload createProductRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	sizes := make(map[domain.ProductSize]domain.SizeVariant, len(payload.Sizes))
	for size, variant := range payload.Sizes {
		price, err := decimal.NewFromString(strings.TrimSpace(variant.Price))
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "price for size "+size+" is not a valid decimal", http.StatusBadRequest))
			return
		}
		sizes[domain.ProductSize(strings.ToLower(strings.TrimSpace(size)))] = domain.SizeVariant{
			Price:    price,
			Quantity: variant.Quantity,
		}
	}

	product, err := h.catalog.CreateProduct(ctx, services.CreateProductCommand{
		Name:              payload.Name,
		Description:       payload.Description,
		Category:          payload.Category,
		Sizes:             sizes,
		LowStockThreshold: payload.LowStockThreshold,
		ActorID:           actorID(ctx),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, productResponse{Product: buildProductPayload(product)})
}

// Update replaces the mutable fields of a product. Stock quantities are
// untouched; restocking is a separate operation.
func (h *AdminCatalogHandlers) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := requireProductID(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var payload updateProductRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	prices := make(map[domain.ProductSize]decimal.Decimal, len(payload.Prices))
	for size, raw := range payload.Prices {
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "price for size "+size+" is not a valid decimal", http.StatusBadRequest))
			return
		}
		prices[domain.ProductSize(strings.ToLower(strings.TrimSpace(size)))] = price
	}

	product, err := h.catalog.UpdateProduct(ctx, services.UpdateProductCommand{
		ProductID:         productID,
		Name:              payload.Name,
		Description:       payload.Description,
		Category:          payload.Category,
		Prices:            prices,
		LowStockThreshold: payload.LowStockThreshold,
		ActorID:           actorID(ctx),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

// SetStatus activates or retires a product.
func (h *AdminCatalogHandlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := requireProductID(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var payload setProductStatusRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	status := domain.ProductStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
	product, err := h.catalog.SetProductStatus(ctx, productID, status, actorID(ctx))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

// Restock adds stock to one size of a product.
func (h *AdminCatalogHandlers) Restock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := requireProductID(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var payload restockRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.Restock(ctx, services.RestockCommand{
		ProductID: productID,
		Size:      domain.ProductSize(strings.ToLower(strings.TrimSpace(payload.Size))),
		Quantity:  payload.Quantity,
		ActorID:   actorID(ctx),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func requireProductID(w http.ResponseWriter, r *http.Request) (string, bool) {
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return "", false
	}
	return productID, true
}
