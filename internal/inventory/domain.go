package inventory

import (
	"sort"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

// Line is a requested quantity of one product.
type Line struct {
	ProductID string
	Quantity  int
}

// Movement records a stock change applied by the ledger.
type Movement struct {
	ProductID string `json:"productId"`
	Delta     int    `json:"delta"`
	Stock     int    `json:"stock"`
}

// LinesFromItems converts invoice items into ledger lines.
func LinesFromItems(items []documents.Item) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// aggregate merges duplicate products and orders lines by product id so that
// row locks are always taken in the same order.
func aggregate(lines []Line) []Line {
	totals := make(map[string]int, len(lines))
	for _, ln := range lines {
		totals[ln.ProductID] += ln.Quantity
	}
	out := make([]Line, 0, len(totals))
	for id, qty := range totals {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
