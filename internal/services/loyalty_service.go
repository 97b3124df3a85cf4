package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/repositories"
)

const (
	eventLoyaltyRedeem  = "loyalty.redeem"
	eventLoyaltyRefund  = "loyalty.refund"
	eventLoyaltyReverse = "loyalty.reverse"
)

var (
	// ErrLoyaltyInvalidInput signals the caller provided invalid arguments.
	ErrLoyaltyInvalidInput = errors.New("loyalty: invalid input")
	// ErrLoyaltyProfileNotFound indicates no profile exists for the customer.
	ErrLoyaltyProfileNotFound = errors.New("loyalty: profile not found")
	// ErrLoyaltyInsufficientPoints indicates the redemption exceeds the available balance.
	ErrLoyaltyInsufficientPoints = errors.New("loyalty: insufficient points")
)

// LoyaltyServiceDeps bundles the collaborators required to construct a loyalty service.
type LoyaltyServiceDeps struct {
	Profiles repositories.ProfileRepository
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type loyaltyService struct {
	profiles repositories.ProfileRepository
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewLoyaltyService wires dependencies into a concrete LoyaltyService implementation.
func NewLoyaltyService(deps LoyaltyServiceDeps) (LoyaltyService, error) {
	if deps.Profiles == nil {
		return nil, errors.New("loyalty service: profile repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &loyaltyService{
		profiles: deps.Profiles,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Redeem moves points from the available balance to the used counter,
// rejecting redemptions the balance cannot cover.
func (s *loyaltyService) Redeem(ctx context.Context, userID string, points int) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrLoyaltyInvalidInput)
	}
	if points <= 0 {
		return fmt.Errorf("%w: points must be positive", ErrLoyaltyInvalidInput)
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return s.mapRepositoryError(err)
	}

	if profile.LoyaltyPoints < points {
		return fmt.Errorf("%w: have %d, need %d", ErrLoyaltyInsufficientPoints, profile.LoyaltyPoints, points)
	}

	profile.LoyaltyPoints -= points
	profile.LoyaltyPointsUsed += points
	profile.UpdatedAt = s.clock()

	if err := s.profiles.UpdateLoyalty(ctx, profile); err != nil {
		return s.mapRepositoryError(err)
	}

	s.logger(ctx, eventLoyaltyRedeem, map[string]any{
		"user":    userID,
		"points":  points,
		"balance": profile.LoyaltyPoints,
	})
	return nil
}

// Refund returns previously redeemed points to the available balance,
// clamping the used counter at zero.
func (s *loyaltyService) Refund(ctx context.Context, userID string, points int) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrLoyaltyInvalidInput)
	}
	if points <= 0 {
		return fmt.Errorf("%w: points must be positive", ErrLoyaltyInvalidInput)
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return s.mapRepositoryError(err)
	}

	reversal := domain.LoyaltyReversal{PointsUsed: points}
	profile = reversal.Apply(profile)
	profile.UpdatedAt = s.clock()

	if err := s.profiles.UpdateLoyalty(ctx, profile); err != nil {
		return s.mapRepositoryError(err)
	}

	s.logger(ctx, eventLoyaltyRefund, map[string]any{
		"user":    userID,
		"points":  points,
		"balance": profile.LoyaltyPoints,
	})
	return nil
}

// ReverseOrder undoes both sides of a purged order's loyalty impact:
// points the customer spent come back, points the order would have
// earned are clawed back, and neither balance can go negative. Orders
// without a customer are a no-op.
func (s *loyaltyService) ReverseOrder(ctx context.Context, order domain.Order) error {
	if order.CustomerID == nil || *order.CustomerID == "" {
		return nil
	}

	reversal := domain.LoyaltyReversal{
		PointsEarned: domain.LoyaltyPointsEarned(order.TotalAmount),
		PointsUsed:   order.LoyaltyPointsUsed,
	}
	// Spent and earned cancelling out leaves both balances as they are.
	if reversal.NetChange() == 0 {
		return nil
	}

	profile, err := s.profiles.FindByUserID(ctx, *order.CustomerID)
	if err != nil {
		return s.mapRepositoryError(err)
	}

	profile = reversal.Apply(profile)
	profile.UpdatedAt = s.clock()

	if err := s.profiles.UpdateLoyalty(ctx, profile); err != nil {
		return s.mapRepositoryError(err)
	}

	s.logger(ctx, eventLoyaltyReverse, map[string]any{
		"user":          *order.CustomerID,
		"order":         order.ID,
		"points_earned": reversal.PointsEarned,
		"points_used":   reversal.PointsUsed,
		"net_change":    reversal.NetChange(),
	})
	return nil
}

func (s *loyaltyService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrLoyaltyProfileNotFound, err)
	}
	return err
}
