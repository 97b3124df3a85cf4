package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

const productIDPrefix = "prd_"

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogProductNotFound indicates the product could not be located.
	ErrCatalogProductNotFound = errors.New("catalog: product not found")
	// ErrCatalogConflict indicates a duplicate or conflicting catalog write.
	ErrCatalogConflict = errors.New("catalog: conflict")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	products repositories.ProductRepository
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &catalogService{
		products: deps.Products,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// CreateProduct stores a new catalog entry with its initial stock.
func (s *catalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if len(cmd.Sizes) == 0 {
		return domain.Product{}, fmt.Errorf("%w: at least one size variant is required", ErrCatalogInvalidInput)
	}
	for size, variant := range cmd.Sizes {
		if !domain.ValidSize(size) {
			return domain.Product{}, fmt.Errorf("%w: size %q", ErrCatalogInvalidInput, size)
		}
		if variant.Price.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: %s price cannot be negative", ErrCatalogInvalidInput, size)
		}
		if variant.Quantity < 0 {
			return domain.Product{}, fmt.Errorf("%w: %s quantity cannot be negative", ErrCatalogInvalidInput, size)
		}
	}
	if cmd.LowStockThreshold < 0 {
		return domain.Product{}, fmt.Errorf("%w: low stock threshold cannot be negative", ErrCatalogInvalidInput)
	}

	now := s.clock()
	product := domain.Product{
		ID:                productIDPrefix + s.newID(),
		Name:              name,
		Description:       strings.TrimSpace(cmd.Description),
		Category:          strings.TrimSpace(cmd.Category),
		Sizes:             cloneSizes(cmd.Sizes),
		LowStockThreshold: cmd.LowStockThreshold,
		Status:            domain.ProductStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.created", map[string]any{
		"product": product.ID,
		"name":    product.Name,
		"actor":   cmd.ActorID,
	})
	return product, nil
}

// UpdateProduct replaces the descriptive fields and prices of a product.
// Stock quantities move only through the inventory ledger and Restock.
func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if cmd.LowStockThreshold < 0 {
		return domain.Product{}, fmt.Errorf("%w: low stock threshold cannot be negative", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}

	product.Name = name
	product.Description = strings.TrimSpace(cmd.Description)
	product.Category = strings.TrimSpace(cmd.Category)
	product.LowStockThreshold = cmd.LowStockThreshold
	product.UpdatedAt = s.clock()

	for size, price := range cmd.Prices {
		if !domain.ValidSize(size) {
			return domain.Product{}, fmt.Errorf("%w: size %q", ErrCatalogInvalidInput, size)
		}
		if price.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: %s price cannot be negative", ErrCatalogInvalidInput, size)
		}
		variant := product.Sizes[size]
		variant.Price = price
		product.Sizes[size] = variant
	}

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.updated", map[string]any{
		"product": product.ID,
		"actor":   cmd.ActorID,
	})
	return product, nil
}

// SetProductStatus activates or retires a product. Retiring hides it
// from customer listings without touching historical order items.
func (s *catalogService) SetProductStatus(ctx context.Context, productID string, status domain.ProductStatus, actorID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if status != domain.ProductStatusActive && status != domain.ProductStatusInactive {
		return domain.Product{}, fmt.Errorf("%w: status %q", ErrCatalogInvalidInput, status)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	if product.Status == status {
		return product, nil
	}

	product.Status = status
	product.UpdatedAt = s.clock()

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.status", map[string]any{
		"product": product.ID,
		"status":  string(status),
		"actor":   actorID,
	})
	return product, nil
}

// Restock adds stock to one size through the same guarded ledger used
// by the order workflow.
func (s *catalogService) Restock(ctx context.Context, cmd RestockCommand) (domain.Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if !domain.ValidSize(cmd.Size) {
		return domain.Product{}, fmt.Errorf("%w: size %q", ErrCatalogInvalidInput, cmd.Size)
	}
	if cmd.Quantity <= 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity must be positive", ErrCatalogInvalidInput)
	}

	if err := s.products.AdjustStock(ctx, productID, cmd.Size, cmd.Quantity); err != nil {
		var invErr *repositories.InventoryError
		if errors.As(err, &invErr) && invErr.Code == repositories.InventoryErrorProductNotFound {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrCatalogProductNotFound, productID)
		}
		return domain.Product{}, s.mapRepositoryError(err)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.restocked", map[string]any{
		"product":  product.ID,
		"size":     string(cmd.Size),
		"quantity": cmd.Quantity,
		"actor":    cmd.ActorID,
	})
	return product, nil
}

// GetProduct loads one product.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

// ListProducts returns a filtered catalog page.
func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) (domain.Page[domain.Product], error) {
	page, err := s.products.List(ctx, repositories.ProductListFilter{
		Status:       filter.Status,
		Category:     strings.TrimSpace(filter.Category),
		Search:       strings.TrimSpace(filter.Search),
		LowStockOnly: filter.LowStockOnly,
		Pagination:   filter.Pagination,
	})
	if err != nil {
		return domain.Page[domain.Product]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogProductNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCatalogConflict, err)
		}
	}

	return err
}

func cloneSizes(sizes map[domain.ProductSize]domain.SizeVariant) map[domain.ProductSize]domain.SizeVariant {
	cloned := make(map[domain.ProductSize]domain.SizeVariant, len(sizes))
	for size, variant := range sizes {
		cloned[size] = variant
	}
	return cloned
}
