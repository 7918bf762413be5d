// Package inventory is the Stock Ledger: it applies and reverses per-product
// stock deltas inside a caller-supplied unit of work.
package inventory

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Ledger mutates product stock.
type Ledger struct {
	logger *slog.Logger
}

// NewLedger builds a Ledger.
func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{logger: logger}
}

// ApplySale checks every line against on-hand stock and then decrements.
// Nothing is written when any line is short.
func (l *Ledger) ApplySale(ctx context.Context, tx documents.Tx, lines []Line) ([]Movement, error) {
	agg, err := validLines(lines)
	if err != nil {
		return nil, err
	}
	for _, ln := range agg {
		p, err := tx.GetProductForUpdate(ctx, ln.ProductID)
		if err != nil {
			return nil, err
		}
		if p.Stock < ln.Quantity {
			return nil, &shared.InsufficientStockError{ProductID: ln.ProductID, Available: p.Stock, Requested: ln.Quantity}
		}
	}
	return l.move(ctx, tx, agg, -1)
}

// ApplyPurchase increments stock for every line.
func (l *Ledger) ApplyPurchase(ctx context.Context, tx documents.Tx, lines []Line) ([]Movement, error) {
	agg, err := validLines(lines)
	if err != nil {
		return nil, err
	}
	for _, ln := range agg {
		if _, err := tx.GetProductForUpdate(ctx, ln.ProductID); err != nil {
			return nil, err
		}
	}
	return l.move(ctx, tx, agg, 1)
}

// ReverseSale returns sold quantities to stock.
func (l *Ledger) ReverseSale(ctx context.Context, tx documents.Tx, lines []Line) ([]Movement, error) {
	return l.move(ctx, tx, aggregate(lines), 1)
}

// ReversePurchase removes purchased quantities. Stock may go negative when
// the goods were already sold; that is logged and accepted.
func (l *Ledger) ReversePurchase(ctx context.Context, tx documents.Tx, lines []Line) ([]Movement, error) {
	movements, err := l.move(ctx, tx, aggregate(lines), -1)
	if err != nil {
		return nil, err
	}
	for _, m := range movements {
		if m.Stock < 0 {
			l.logger.Warn("purchase reversal left negative stock",
				slog.String("product_id", m.ProductID),
				slog.Int("stock", m.Stock))
		}
	}
	return movements, nil
}

func (l *Ledger) move(ctx context.Context, tx documents.Tx, lines []Line, sign int) ([]Movement, error) {
	movements := make([]Movement, 0, len(lines))
	for _, ln := range lines {
		delta := sign * ln.Quantity
		stock, err := tx.AdjustProductStock(ctx, ln.ProductID, delta)
		if err != nil {
			return nil, err
		}
		movements = append(movements, Movement{ProductID: ln.ProductID, Delta: delta, Stock: stock})
	}
	return movements, nil
}

func validLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, shared.NewValidationError("items", "at least one item is required")
	}
	for _, ln := range lines {
		if ln.ProductID == "" {
			return nil, shared.NewValidationError("items.productId", "is required")
		}
		if ln.Quantity <= 0 {
			return nil, shared.NewValidationError("items.quantity", "must be greater than zero")
		}
	}
	return aggregate(lines), nil
}
