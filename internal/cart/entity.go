// internal/cart/entity.go
package cart

import "math"

// Shipping rule: free above the threshold (and for an empty cart),
// otherwise a flat fee. Amounts are in cents.
const (
	FreeShippingThreshold int64 = 5000
	FlatShippingFee       int64 = 599
)

// Line is one book entry in the cart with its captured unit price
type Line struct {
	LineID    string `json:"line_id"`
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	CoverURL  string `json:"cover_url,omitempty"`
	UnitPrice int64  `json:"unit_price"` // In cents
	Quantity  int    `json:"quantity"`
}

// Snapshot is the complete cart state after a successful mutation. Totals
// are derived from the lines, never trusted from a stale local value.
type Snapshot struct {
	Lines      []Line `json:"lines"`
	TotalItems int    `json:"total_items"`
	Subtotal   int64  `json:"subtotal"`
	Shipping   int64  `json:"shipping"`
	Total      int64  `json:"total"`
}

// buildSnapshot derives the totals for a set of lines
func buildSnapshot(lines []Line) Snapshot {
	var totalItems int
	var subtotal int64
	for _, line := range lines {
		totalItems += line.Quantity
		subtotal += line.UnitPrice * int64(line.Quantity)
	}

	var shipping int64
	if subtotal > 0 && subtotal < FreeShippingThreshold {
		shipping = FlatShippingFee
	}

	return Snapshot{
		Lines:      lines,
		TotalItems: totalItems,
		Subtotal:   subtotal,
		Shipping:   shipping,
		Total:      subtotal + shipping,
	}
}

// CentsFromDollars converts a wire amount (dollars as a JSON number) to
// cents, rounding to the nearest cent
func CentsFromDollars(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// DollarsFromCents converts cents back to the wire representation
func DollarsFromCents(cents int64) float64 {
	return float64(cents) / 100
}
