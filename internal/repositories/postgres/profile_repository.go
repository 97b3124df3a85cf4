package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

// ProfileRepository persists customer profiles and loyalty balances.
type ProfileRepository struct {
	db *gorm.DB
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)

// FindByUserID loads the profile owned by the given customer.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	var row profileRow
	if err := session(ctx, r.db).First(&row, "user_id = ?", userID).Error; err != nil {
		return domain.Profile{}, wrapError("profile.find", err)
	}
	return row.toDomain(), nil
}

// UpdateLoyalty writes the loyalty balance columns.
func (r *ProfileRepository) UpdateLoyalty(ctx context.Context, profile domain.Profile) error {
	row := profileRowFromDomain(profile)
	res := session(ctx, r.db).Model(&profileRow{}).Where("id = ?", row.ID).Updates(map[string]any{
		"loyalty_points":      row.LoyaltyPoints,
		"loyalty_points_used": row.LoyaltyPointsUsed,
		"updated_at":          row.UpdatedAt,
	})
	if res.Error != nil {
		return wrapError("profile.update_loyalty", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("profile.update_loyalty", fmt.Errorf("profile %s not found", row.ID))
	}
	return nil
}
