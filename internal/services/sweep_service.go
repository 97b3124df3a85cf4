package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

// DefaultStaleThreshold is how long an order may sit in Pending before
// the sweep auto-confirms it.
const DefaultStaleThreshold = 30 * time.Minute

const sweepNoteFormat = "Auto-confirmed: order was pending for more than %d minutes"

// SweepServiceDeps bundles collaborators required to construct the sweep service.
type SweepServiceDeps struct {
	Orders      repositories.OrderRepository
	History     repositories.OrderHistoryRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type sweepService struct {
	orders     repositories.OrderRepository
	history    repositories.OrderHistoryRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	logger     func(context.Context, string, map[string]any)
}

// NewSweepService wires dependencies into a concrete SweepService implementation.
func NewSweepService(deps SweepServiceDeps) (SweepService, error) {
	if deps.Orders == nil {
		return nil, errors.New("sweep service: order repository is required")
	}
	if deps.History == nil {
		return nil, errors.New("sweep service: history repository is required")
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

	return &sweepService{
		orders:     deps.Orders,
		history:    deps.History,
		unitOfWork: ensureUnitOfWork(deps.UnitOfWork),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// SweepStalePending confirms every Pending order older than the
// threshold, one transaction per order, so a failing order is rolled
// back and recorded without aborting the rest of the batch.
func (s *sweepService) SweepStalePending(ctx context.Context, threshold time.Duration) (SweepReport, error) {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}

	now := s.clock()
	cutoff := now.Add(-threshold)

	report := SweepReport{
		RunID:   uuid.NewString(),
		SweptAt: now,
	}

	stale, err := s.orders.ListStalePending(ctx, cutoff)
	if err != nil {
		return report, err
	}

	for _, candidate := range stale {
		confirmed, err := s.confirmOne(ctx, candidate.ID, threshold)
		if err != nil {
			report.Errors = append(report.Errors, SweepError{
				OrderID: candidate.ID,
				Message: err.Error(),
			})
			s.logger(ctx, "sweep.order.failed", map[string]any{
				"run":   report.RunID,
				"order": candidate.ID,
				"error": err.Error(),
			})
			continue
		}
		// A candidate that moved on between the scan and the transaction
		// is neither updated nor an error.
		if confirmed {
			report.UpdatedCount++
		}
	}

	s.logger(ctx, "sweep.completed", map[string]any{
		"run":     report.RunID,
		"updated": report.UpdatedCount,
		"failed":  len(report.Errors),
	})

	return report, nil
}

func (s *sweepService) confirmOne(ctx context.Context, orderID string, threshold time.Duration) (bool, error) {
	confirmed := false
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		// Re-read inside the transaction: the order may have moved on
		// between the scan and this point.
		order, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusPending {
			return nil
		}

		now := s.clock()
		order.Status = domain.OrderStatusConfirmed
		order.UpdatedAt = now

		if err := s.orders.Update(txCtx, order); err != nil {
			return err
		}
		confirmed = true

		entry := domain.OrderHistoryEntry{
			ID:         historyIDPrefix + s.newID(),
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Status:     order.Status,
			Notes:      fmt.Sprintf(sweepNoteFormat, int(threshold.Minutes())),
			CreatedAt:  now,
		}
		return s.history.Append(txCtx, entry)
	})
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
