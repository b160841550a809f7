// Package money compares auction amounts at cent precision.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 2 // amounts are compared in whole cents

var (
	errNotFinite   = errors.New("amount must be a finite number")
	errNotPositive = errors.New("amount must be greater than zero")
)

// Round rounds amount to cent precision.
func Round(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}
	rounded, _ := decimal.NewFromFloat(amount).Round(monetaryPrecision).Float64()
	return rounded
}

// Validate checks that amount is finite and still positive once rounded to cents.
func Validate(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return errNotFinite
	}
	if !decimal.NewFromFloat(amount).Round(monetaryPrecision).IsPositive() {
		return errNotPositive
	}
	return nil
}

// Exceeds reports whether amount is strictly greater than current.
func Exceeds(amount, current float64) bool {
	return toDecimal(amount).GreaterThan(toDecimal(current))
}

// AtLeast reports whether amount meets or exceeds floor.
func AtLeast(amount, floor float64) bool {
	return toDecimal(amount).GreaterThanOrEqual(toDecimal(floor))
}

func toDecimal(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(monetaryPrecision)
}
