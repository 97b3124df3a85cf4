package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

// ProductRepository persists catalog rows with size-partitioned stock columns.
type ProductRepository struct {
	db *gorm.DB
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

func sizeColumn(size domain.ProductSize) (string, bool) {
	switch size {
	case domain.SizeSmall:
		return "small_quantity", true
	case domain.SizeMedium:
		return "medium_quantity", true
	case domain.SizeLarge:
		return "large_quantity", true
	}
	return "", false
}

// Insert stores a new product row.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	row := productRowFromDomain(product)
	if err := session(ctx, r.db).Create(&row).Error; err != nil {
		return wrapError("product.insert", err)
	}
	return nil
}

// Update replaces the mutable columns of an existing product row.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	row := productRowFromDomain(product)
	res := session(ctx, r.db).Model(&productRow{}).Where("id = ?", row.ID).Updates(map[string]any{
		"name":                row.Name,
		"description":         row.Description,
		"category":            row.Category,
		"small_price":         row.SmallPrice,
		"small_quantity":      row.SmallQuantity,
		"medium_price":        row.MediumPrice,
		"medium_quantity":     row.MediumQuantity,
		"large_price":         row.LargePrice,
		"large_quantity":      row.LargeQuantity,
		"low_stock_threshold": row.LowStockThreshold,
		"status":              row.Status,
		"updated_at":          row.UpdatedAt,
	})
	if res.Error != nil {
		return wrapError("product.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("product.update", fmt.Errorf("product %s not found", row.ID))
	}
	return nil
}

// FindByID loads a single product row.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	var row productRow
	if err := session(ctx, r.db).First(&row, "id = ?", productID).Error; err != nil {
		return domain.Product{}, wrapError("product.find", err)
	}
	return row.toDomain(), nil
}

// FindByIDs loads a batch of products keyed by id. Missing ids are simply absent from the map.
func (r *ProductRepository) FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	if len(productIDs) == 0 {
		return map[string]domain.Product{}, nil
	}
	var rows []productRow
	if err := session(ctx, r.db).Where("id IN ?", productIDs).Find(&rows).Error; err != nil {
		return nil, wrapError("product.find_batch", err)
	}
	out := make(map[string]domain.Product, len(rows))
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

// List returns a filtered page of products with the total match count.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	query := session(ctx, r.db).Model(&productRow{})

	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if filter.LowStockOnly {
		query = query.Where("small_quantity + medium_quantity + large_quantity <= low_stock_threshold")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.Product]{}, wrapError("product.list", err)
	}

	query = query.Order("name ASC")
	if filter.Pagination.Limit > 0 {
		query = query.Limit(filter.Pagination.Limit)
	}
	if filter.Pagination.Offset > 0 {
		query = query.Offset(filter.Pagination.Offset)
	}

	var rows []productRow
	if err := query.Find(&rows).Error; err != nil {
		return domain.Page[domain.Product]{}, wrapError("product.list", err)
	}

	page := domain.Page[domain.Product]{Total: total, Items: make([]domain.Product, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, row.toDomain())
	}
	return page, nil
}

// AdjustStock applies a signed delta to one size quantity. The WHERE
// guard keeps the quantity non-negative; a guarded-out decrement is
// distinguished from a missing product by re-checking existence.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, size domain.ProductSize, delta int) error {
	column, ok := sizeColumn(size)
	if !ok {
		return repositories.NewInventoryError(repositories.InventoryErrorInvalidSize,
			fmt.Sprintf("size %q is not stocked", size), nil)
	}
	if delta == 0 {
		return nil
	}

	db := session(ctx, r.db)
	res := db.Model(&productRow{}).
		Where("id = ?", productID).
		Where(column+" + ? >= 0", delta).
		Updates(map[string]any{
			column:       gorm.Expr(column+" + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return wrapError("product.adjust_stock", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&productRow{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return wrapError("product.adjust_stock", err)
	}
	if count == 0 {
		return repositories.NewInventoryError(repositories.InventoryErrorProductNotFound,
			fmt.Sprintf("product %s not found", productID), gorm.ErrRecordNotFound)
	}
	return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock,
		fmt.Sprintf("product %s %s stock cannot absorb delta %d", productID, size, delta), errors.New("quantity would go negative"))
}
