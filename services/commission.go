package services

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is the platform take used whenever no rate is stored.
const DefaultCommissionRate = 0.085

// ValidateRate accepts rates in the half-open interval [0, 1).
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidRate, rate)
	}
	return nil
}

// ComputeFee returns the platform fee on grossMinor, rounded half-up to the
// nearest minor unit. The result always satisfies 0 <= fee <= grossMinor.
func ComputeFee(grossMinor int64, rate float64) (int64, error) {
	if grossMinor < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidAmount, grossMinor)
	}
	if err := ValidateRate(rate); err != nil {
		return 0, err
	}

	// decimal.Round rounds half away from zero, which is half-up for non-negative amounts.
	fee := decimal.NewFromInt(grossMinor).Mul(decimal.NewFromFloat(rate)).Round(0)
	return fee.IntPart(), nil
}

// NetAmount is what the seller receives once the fee is taken.
func NetAmount(grossMinor, feeMinor int64) int64 {
	return grossMinor - feeMinor
}
