package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/roastline/api/internal/repositories"
)

// HealthRepository answers readiness probes with a connection ping.
type HealthRepository struct {
	db *gorm.DB
}

var _ repositories.HealthRepository = (*HealthRepository)(nil)

// Ping verifies the database connection is usable.
func (r *HealthRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return wrapError("health.ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return wrapError("health.ping", err)
	}
	return nil
}
