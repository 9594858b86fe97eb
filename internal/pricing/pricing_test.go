package pricing

import "testing"

func TestLineAmounts(t *testing.T) {
	line := Line{UnitNet: 29990, UnitGross: 35688, Quantity: 2}

	if got := LineNet(line); got != 59980 {
		t.Fatalf("LineNet = %d", got)
	}
	if got := LineGross(line); got != 71376 {
		t.Fatalf("LineGross = %d", got)
	}
	if got := LineTax(line); got != 11396 {
		t.Fatalf("LineTax = %d", got)
	}
}

func TestComputeTotalsInvariant(t *testing.T) {
	lines := []Line{
		{UnitNet: 29990, UnitGross: 35688, Quantity: 1},
		{UnitNet: 14990, UnitGross: 17838, Quantity: 3},
		{UnitNet: 9990, UnitGross: 11888, Quantity: 2},
	}

	totals := Compute(lines)
	if totals.TotalGross != totals.SubtotalNet+totals.Tax {
		t.Fatalf("invariant broken: gross=%d net=%d tax=%d", totals.TotalGross, totals.SubtotalNet, totals.Tax)
	}
	if totals.ItemCount != 6 {
		t.Fatalf("ItemCount = %d", totals.ItemCount)
	}

	var wantGross int64
	for _, l := range lines {
		wantGross += LineGross(l)
	}
	if totals.TotalGross != wantGross {
		t.Fatalf("TotalGross = %d, want %d", totals.TotalGross, wantGross)
	}
}

func TestComputeEmpty(t *testing.T) {
	totals := Compute(nil)
	if totals != (Totals{}) {
		t.Fatalf("empty cart should produce zero totals, got %+v", totals)
	}
}

func TestNetFromGross(t *testing.T) {
	tests := []struct {
		gross int64
		net   int64
	}{
		{35688, 29990},
		{119, 100},
		{1190, 1000},
		{100, 84},
		{0, 0},
	}
	for _, tc := range tests {
		if got := NetFromGross(tc.gross, 0.19); got != tc.net {
			t.Fatalf("NetFromGross(%d) = %d, want %d", tc.gross, got, tc.net)
		}
	}
}

func TestTaxFromGrossComplementsNet(t *testing.T) {
	for _, gross := range []int64{1, 99, 119, 35688, 1234567} {
		net := NetFromGross(gross, 0.19)
		tax := TaxFromGross(gross, 0.19)
		if net+tax != gross {
			t.Fatalf("net %d + tax %d != gross %d", net, tax, gross)
		}
	}
}

func TestNetFromGrossZeroRate(t *testing.T) {
	if got := NetFromGross(1000, 0); got != 1000 {
		t.Fatalf("zero rate should pass gross through, got %d", got)
	}
}

func TestGrossFromNet(t *testing.T) {
	if got := GrossFromNet(29990, 0.19); got != 35688 {
		t.Fatalf("GrossFromNet = %d", got)
	}
}
