package postgres

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

// OrderHistoryRepository persists the append-only order status audit trail.
type OrderHistoryRepository struct {
	db *gorm.DB
}

var _ repositories.OrderHistoryRepository = (*OrderHistoryRepository)(nil)

// Append writes one audit entry. Entries are never updated.
func (r *OrderHistoryRepository) Append(ctx context.Context, entry domain.OrderHistoryEntry) error {
	row := historyRowFromDomain(entry)
	if err := session(ctx, r.db).Create(&row).Error; err != nil {
		return wrapError("history.append", err)
	}
	return nil
}

// ListByOrder returns the audit trail for one order, oldest first.
func (r *OrderHistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.OrderHistoryEntry, error) {
	var rows []orderHistoryRow
	err := session(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapError("history.list", err)
	}

	entries := make([]domain.OrderHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

// DeleteByOrder removes the trail as part of a hard order purge. Deleting
// zero rows is fine: a purged order may never have left Pending.
func (r *OrderHistoryRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	if err := session(ctx, r.db).Where("order_id = ?", orderID).Delete(&orderHistoryRow{}).Error; err != nil {
		return wrapError("history.delete", err)
	}
	return nil
}
