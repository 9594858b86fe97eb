package cart

import (
	"sort"
	"strings"

	"github.com/sgalleguillos/brokerpulse-backend/internal/pricing"
)

// Metadata keys with domain meaning. rutCorredor names the broker whose
// report the line purchases; checkout derives the access-grant module key
// from it.
const (
	MetaBrokerRUT  = "rutCorredor"
	MetaBrokerName = "nombreCorredor"
	MetaPeriod     = "periodo"
)

// LineItem is one entry in a cart. JSON tags match the client-durable wire
// record, which predates this service and uses Spanish field names.
type LineItem struct {
	ProductID      string            `json:"productId"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Description    string            `json:"descripcion"`
	UnitPriceNet   int64             `json:"precio_neto"`
	UnitPriceGross int64             `json:"precio_bruto"`
	Quantity       int               `json:"cantidad"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// BrokerRUT returns the domain key embedded in the line's metadata, or "".
func (li LineItem) BrokerRUT() string {
	return strings.TrimSpace(li.Metadata[MetaBrokerRUT])
}

// Period returns the reporting period the line refers to, or "".
func (li LineItem) Period() string {
	return strings.TrimSpace(li.Metadata[MetaPeriod])
}

// PricingLine maps the item onto the pricing engine's view.
func (li LineItem) PricingLine() pricing.Line {
	return pricing.Line{
		UnitNet:   li.UnitPriceNet,
		UnitGross: li.UnitPriceGross,
		Quantity:  li.Quantity,
	}
}

func (li LineItem) clone() LineItem {
	out := li
	if li.Metadata != nil {
		out.Metadata = make(map[string]string, len(li.Metadata))
		for k, v := range li.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// State is the full cart snapshot, totals included. It round-trips through
// the persistence adapter as the same JSON record the client reads.
type State struct {
	Items       []LineItem `json:"items"`
	SubtotalNet int64      `json:"subtotal"`
	TaxTotal    int64      `json:"iva"`
	TotalGross  int64      `json:"total"`
	ItemCount   int        `json:"cantidadItems"`
}

// Empty returns a cleared cart state.
func Empty() State {
	return State{Items: []LineItem{}}
}

// IsEmpty reports whether the cart holds no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

func (s State) clone() State {
	out := s
	out.Items = make([]LineItem, len(s.Items))
	for i, item := range s.Items {
		out.Items[i] = item.clone()
	}
	return out
}

// LineKey derives the normalized identity of a cart line: the product plus
// its metadata with keys sorted, so two maps with equal content always
// produce the same key regardless of insertion order.
func LineKey(productID string, metadata map[string]string) string {
	if len(metadata) == 0 {
		return productID
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(productID)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(metadata[k])
	}
	return b.String()
}

func (li LineItem) lineKey() string {
	return LineKey(li.ProductID, li.Metadata)
}

func recomputeTotals(s State) State {
	lines := make([]pricing.Line, len(s.Items))
	for i, item := range s.Items {
		lines[i] = item.PricingLine()
	}
	totals := pricing.Compute(lines)
	s.SubtotalNet = totals.SubtotalNet
	s.TaxTotal = totals.Tax
	s.TotalGross = totals.TotalGross
	s.ItemCount = totals.ItemCount
	return s
}
