package pricing

import "github.com/shopspring/decimal"

// DefaultTaxRate is the IVA applied to net prices when no rate is configured.
const DefaultTaxRate = 0.19

// Line is the minimal pricing view of a cart line: unit prices in whole
// pesos and a positive quantity.
type Line struct {
	UnitNet   int64
	UnitGross int64
	Quantity  int
}

// Totals is the derived money breakdown for a set of lines. The invariant
// TotalGross == SubtotalNet + Tax holds for any input because tax is always
// derived per line from the net price, never recomputed from rounded sums.
type Totals struct {
	SubtotalNet int64
	Tax         int64
	TotalGross  int64
	ItemCount   int
}

// LineNet returns the net amount for one line.
func LineNet(l Line) int64 {
	return l.UnitNet * int64(l.Quantity)
}

// LineGross returns the gross amount for one line.
func LineGross(l Line) int64 {
	return l.UnitGross * int64(l.Quantity)
}

// LineTax returns the tax carried by one line.
func LineTax(l Line) int64 {
	return LineGross(l) - LineNet(l)
}

// Compute aggregates per-line amounts into cart totals.
func Compute(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.SubtotalNet += LineNet(l)
		t.Tax += LineTax(l)
		t.TotalGross += LineGross(l)
		t.ItemCount += l.Quantity
	}
	return t
}

// NetFromGross reconstructs the net amount from a gross amount, rounding
// half-up once. Callers reconstructing a multi-line total must apply this per
// line, not once for the whole cart, to avoid cross-line rounding drift.
func NetFromGross(gross int64, taxRate float64) int64 {
	if taxRate <= 0 {
		return gross
	}
	g := decimal.NewFromInt(gross)
	divisor := decimal.NewFromFloat(1 + taxRate)
	return g.Div(divisor).Round(0).IntPart()
}

// TaxFromGross returns the tax share of a gross amount under NetFromGross's
// rounding convention.
func TaxFromGross(gross int64, taxRate float64) int64 {
	return gross - NetFromGross(gross, taxRate)
}

// GrossFromNet applies the tax rate to a net amount, rounding half-up.
func GrossFromNet(net int64, taxRate float64) int64 {
	n := decimal.NewFromInt(net)
	factor := decimal.NewFromFloat(1 + taxRate)
	return n.Mul(factor).Round(0).IntPart()
}
