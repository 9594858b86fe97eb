package enums

import "fmt"

// CheckoutStrategy tags how a payment record was shaped: one record for a
// single purchased item, or one record covering the whole cart.
type CheckoutStrategy string

const (
	CheckoutStrategySingleItem CheckoutStrategy = "single_item"
	CheckoutStrategyMultiItem  CheckoutStrategy = "multi_item"
)

var validCheckoutStrategies = []CheckoutStrategy{
	CheckoutStrategySingleItem,
	CheckoutStrategyMultiItem,
}

// String implements fmt.Stringer.
func (s CheckoutStrategy) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStrategy.
func (s CheckoutStrategy) IsValid() bool {
	for _, candidate := range validCheckoutStrategies {
		if candidate == s {
			return true
		}
	}
	return false
}

// Tipo returns the Spanish wire value exposed in checkout responses.
func (s CheckoutStrategy) Tipo() string {
	if s == CheckoutStrategySingleItem {
		return "producto_individual"
	}
	return "carrito_completo"
}

// ParseCheckoutStrategy converts raw input into a CheckoutStrategy.
func ParseCheckoutStrategy(value string) (CheckoutStrategy, error) {
	for _, candidate := range validCheckoutStrategies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout strategy %q", value)
}
