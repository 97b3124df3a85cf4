package domain

import "github.com/shopspring/decimal"

// loyaltyAccrualDivisor is the currency amount worth one loyalty point.
var loyaltyAccrualDivisor = decimal.NewFromInt(10)

// LoyaltyPointsEarned computes the points an order accrues: one point per
// ten currency units of the total, rounded down. The rule is applied
// uniformly regardless of item category.
func LoyaltyPointsEarned(totalAmount decimal.Decimal) int {
	if totalAmount.IsNegative() {
		return 0
	}
	return int(totalAmount.Div(loyaltyAccrualDivisor).Floor().IntPart())
}

// LoyaltyReversal describes the profile balance changes required to undo
// an order's loyalty impact when the order is purged.
type LoyaltyReversal struct {
	PointsEarned int
	PointsUsed   int
}

// NetChange is the delta applied to the available balance: spent points
// come back, points the order would have earned are clawed back.
func (r LoyaltyReversal) NetChange() int {
	return r.PointsUsed - r.PointsEarned
}

// Apply folds the reversal into the profile, clamping both balances at
// zero so a ledger can never go negative.
func (r LoyaltyReversal) Apply(profile Profile) Profile {
	profile.LoyaltyPoints = clampNonNegative(profile.LoyaltyPoints + r.NetChange())
	profile.LoyaltyPointsUsed = clampNonNegative(profile.LoyaltyPointsUsed - r.PointsUsed)
	return profile
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
