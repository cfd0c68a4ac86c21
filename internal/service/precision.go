package service

import (
	"TradeTechCircuit/internal/model"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places the exchange accepts for each order field
type Precision struct {
	Quantity int32
	Price    int32
}

// Magnitude bounds of an accepted order field; rounding cost grows with 10^|exponent|
const (
	minExponent     = -30
	maxExponent     = 30
	maxSignificants = 40
)

// DefaultPrecision returns the fallback precision of the fixed trading pair
func DefaultPrecision() Precision {
	return Precision{
		Quantity: model.DefaultQuantityPrecision,
		Price:    model.DefaultPricePrecision,
	}
}

// ValidateQuantity parses raw and rounds it half-to-even to precision decimal places
func ValidateQuantity(raw string, precision int32) (decimal.Decimal, error) {
	return validatePositive("quantity", "Quantity", raw, precision)
}

// ValidatePrice is ValidateQuantity for price and stop price fields
func ValidatePrice(raw string, precision int32) (decimal.Decimal, error) {
	return validatePositive("price", "Price", raw, precision)
}

func validatePositive(field, label, raw string, precision int32) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, model.NewValidationError(field, fmt.Sprintf("%s is required", label))
	}

	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, model.NewValidationError(field, fmt.Sprintf("%s must be a number, got %q", label, trimmed))
	}

	if !value.IsPositive() {
		return decimal.Zero, model.NewValidationError(field, fmt.Sprintf("%s must be positive", label))
	}

	if value.Exponent() < minExponent || value.Exponent() > maxExponent ||
		len(value.Coefficient().String()) > maxSignificants {
		return decimal.Zero, model.NewValidationError(field, fmt.Sprintf("%s is out of range, got %q", label, trimmed))
	}

	if precision < 0 {
		precision = 0
	}

	// Banker's rounding keeps repeated rounding stable and unbiased
	rounded := value.RoundBank(precision)
	if !rounded.IsPositive() {
		return decimal.Zero, model.NewValidationError(field,
			fmt.Sprintf("%s %s rounds to zero at precision %d", label, trimmed, precision))
	}

	return rounded, nil
}
