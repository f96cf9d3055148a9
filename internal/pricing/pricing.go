// Package pricing holds the size multiplier table, the shipping rule and
// conversion to the payment provider's minor units.
package pricing

import (
	"github.com/shopspring/decimal"
)

var sizeMultipliers = map[string]float64{
	"30g":  1,
	"100g": 2.5,
	"200g": 4.5,
	"250g": 5.5,
	"500g": 8.5,
}

// Multiplier returns the relative price weight of a size label.
// Labels outside the table ("N/A", "Kit Box", "300g", ...) weigh 1.
func Multiplier(label string) float64 {
	if m, ok := sizeMultipliers[label]; ok {
		return m
	}
	return 1
}

// EffectivePrice scales basePrice, which is quoted for baseSize, to selectedSize.
func EffectivePrice(basePrice float64, baseSize, selectedSize string) float64 {
	if selectedSize == "" || selectedSize == baseSize {
		return basePrice
	}
	return basePrice / Multiplier(baseSize) * Multiplier(selectedSize)
}

// LineTotal is unitPrice * quantity without float drift.
func LineTotal(unitPrice float64, quantity int) float64 {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64()
}

// Sum adds amounts in decimal space.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// ToMinorUnits converts a major-unit amount to the provider's integer
// minor unit, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// ShippingRule is the single source of shipping cost.
type ShippingRule struct {
	FreeThreshold float64
	FlatFee       float64
}

func DefaultShippingRule() ShippingRule {
	return ShippingRule{FreeThreshold: 499, FlatFee: 50}
}

func (r ShippingRule) Cost(subtotal float64) float64 {
	if subtotal >= r.FreeThreshold {
		return 0
	}
	return r.FlatFee
}

// Label is the display name shown by the hosted checkout page.
func (r ShippingRule) Label(subtotal float64) string {
	if r.Cost(subtotal) == 0 {
		return "Free Shipping"
	}
	return "Standard Shipping"
}
