package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

// OrderRepository persists order aggregates: the order row and its line items.
type OrderRepository struct {
	db *gorm.DB
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Insert stores the order row together with its line items.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	row := orderRowFromDomain(order)
	if err := session(ctx, r.db).Create(&row).Error; err != nil {
		return wrapError("order.insert", err)
	}
	return nil
}

// Update replaces the mutable columns of the order row. Line items are
// immutable after creation and are not touched.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	row := orderRowFromDomain(order)
	res := session(ctx, r.db).Model(&orderRow{}).Where("id = ?", row.ID).Updates(map[string]any{
		"status":              row.Status,
		"total_amount":        row.TotalAmount,
		"payment_method":      row.PaymentMethod,
		"loyalty_points_used": row.LoyaltyPointsUsed,
		"stock_restored":      row.StockRestored,
		"dismissed_at":        row.DismissedAt,
		"updated_at":          row.UpdatedAt,
	})
	if res.Error != nil {
		return wrapError("order.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("order.update", fmt.Errorf("order %s not found", row.ID))
	}
	return nil
}

// FindByID loads an order with its line items.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	var row orderRow
	if err := session(ctx, r.db).Preload("Items").First(&row, "id = ?", orderID).Error; err != nil {
		return domain.Order{}, wrapError("order.find", err)
	}
	return row.toDomain(), nil
}

// List returns a filtered page of orders, newest first, items included.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	query := session(ctx, r.db).Model(&orderRow{})

	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			statuses = append(statuses, string(status))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.CreatedRange.From != nil {
		query = query.Where("created_at >= ?", *filter.CreatedRange.From)
	}
	if filter.CreatedRange.To != nil {
		query = query.Where("created_at <= ?", *filter.CreatedRange.To)
	}
	if !filter.IncludeDismissed {
		query = query.Where("dismissed_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.Order]{}, wrapError("order.list", err)
	}

	query = query.Order("created_at DESC")
	if filter.Pagination.Limit > 0 {
		query = query.Limit(filter.Pagination.Limit)
	}
	if filter.Pagination.Offset > 0 {
		query = query.Offset(filter.Pagination.Offset)
	}

	var rows []orderRow
	if err := query.Preload("Items").Find(&rows).Error; err != nil {
		return domain.Page[domain.Order]{}, wrapError("order.list", err)
	}

	page := domain.Page[domain.Order]{Total: total, Items: make([]domain.Order, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, row.toDomain())
	}
	return page, nil
}

// ListStalePending returns non-dismissed Pending orders created before the cutoff, oldest first.
func (r *OrderRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	var rows []orderRow
	err := session(ctx, r.db).
		Where("status = ?", string(domain.OrderStatusPending)).
		Where("created_at < ?", olderThan).
		Where("dismissed_at IS NULL").
		Order("created_at ASC").
		Preload("Items").
		Find(&rows).Error
	if err != nil {
		return nil, wrapError("order.list_stale_pending", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toDomain())
	}
	return orders, nil
}

// SetDismissed stamps the dismissal time hiding the order from the admin working view.
func (r *OrderRepository) SetDismissed(ctx context.Context, orderID string, dismissedAt time.Time) error {
	res := session(ctx, r.db).Model(&orderRow{}).Where("id = ?", orderID).Updates(map[string]any{
		"dismissed_at": dismissedAt,
		"updated_at":   dismissedAt,
	})
	if res.Error != nil {
		return wrapError("order.set_dismissed", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("order.set_dismissed", fmt.Errorf("order %s not found", orderID))
	}
	return nil
}

// DeleteAggregate removes the line items and then the order row.
func (r *OrderRepository) DeleteAggregate(ctx context.Context, orderID string) error {
	db := session(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&orderItemRow{}).Error; err != nil {
		return wrapError("order.delete_items", err)
	}
	res := db.Where("id = ?", orderID).Delete(&orderRow{})
	if res.Error != nil {
		return wrapError("order.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("order.delete", fmt.Errorf("order %s not found", orderID))
	}
	return nil
}
