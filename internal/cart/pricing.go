package cart

import "github.com/shopspring/decimal"

// LineSubtotal is quantity × unit price plus the chosen delivery prices.
func LineSubtotal(unitPrice decimal.Decimal, quantity int, delivery decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Add(delivery).Round(2)
}

// ValidateQuantity returns the effective quantity; nil means 1.
func ValidateQuantity(quantity *int) (int, bool) {
	if quantity == nil {
		return 1, true
	}
	if *quantity < 1 {
		return 0, false
	}
	return *quantity, true
}
