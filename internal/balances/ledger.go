// Package balances is the Balance Ledger: it applies signed deltas to
// customer receivables and supplier payables. Balances are only ever moved
// by an increment computed from the document at hand, never recomputed here.
package balances

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Ledger mutates party balances inside a unit of work.
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

// CreationDelta is the balance change a freshly created document carries:
// the unpaid remainder when a party is attached, else zero.
func CreationDelta(inv documents.Invoice) decimal.Decimal {
	if !inv.HasParty() {
		return decimal.Zero
	}
	return shared.PositiveOrZero(inv.Remaining())
}

// OnSaleCreated adds the unpaid remainder to the customer's receivable and
// returns the applied delta.
func (l *Ledger) OnSaleCreated(ctx context.Context, tx documents.Tx, sale documents.Invoice) (decimal.Decimal, error) {
	return l.onCreated(ctx, tx, sale)
}

// OnSaleCancelled removes exactly the delta recorded on the sale.
func (l *Ledger) OnSaleCancelled(ctx context.Context, tx documents.Tx, sale documents.Invoice) (decimal.Decimal, error) {
	return l.onCancelled(ctx, tx, sale)
}

// OnPurchaseCreated adds the unpaid remainder to the supplier's payable.
func (l *Ledger) OnPurchaseCreated(ctx context.Context, tx documents.Tx, purchase documents.Invoice) (decimal.Decimal, error) {
	return l.onCreated(ctx, tx, purchase)
}

// OnPurchaseCancelled removes exactly the delta recorded on the purchase.
func (l *Ledger) OnPurchaseCancelled(ctx context.Context, tx documents.Tx, purchase documents.Invoice) (decimal.Decimal, error) {
	return l.onCancelled(ctx, tx, purchase)
}

// OnCreated dispatches on the document kind.
func (l *Ledger) OnCreated(ctx context.Context, tx documents.Tx, inv documents.Invoice) (decimal.Decimal, error) {
	return l.onCreated(ctx, tx, inv)
}

// OnCancelled dispatches on the document kind.
func (l *Ledger) OnCancelled(ctx context.Context, tx documents.Tx, inv documents.Invoice) (decimal.Decimal, error) {
	return l.onCancelled(ctx, tx, inv)
}

func (l *Ledger) onCreated(ctx context.Context, tx documents.Tx, inv documents.Invoice) (decimal.Decimal, error) {
	delta := CreationDelta(inv)
	if delta.IsZero() {
		return decimal.Zero, nil
	}
	if err := l.adjust(ctx, tx, inv.Kind, *inv.PartyID, delta); err != nil {
		return decimal.Zero, err
	}
	return delta, nil
}

func (l *Ledger) onCancelled(ctx context.Context, tx documents.Tx, inv documents.Invoice) (decimal.Decimal, error) {
	if !inv.HasParty() || inv.BalanceDelta.IsZero() {
		return decimal.Zero, nil
	}
	delta := inv.BalanceDelta.Neg()
	if err := l.adjust(ctx, tx, inv.Kind, *inv.PartyID, delta); err != nil {
		return decimal.Zero, err
	}
	return delta, nil
}

// PaymentDelta returns the balance change a payment causes for its party.
// For customers RECEIVE lowers what they owe and PAY raises it; for
// suppliers PAY lowers what we owe and RECEIVE raises it.
func PaymentDelta(p documents.Payment) decimal.Decimal {
	if p.CustomerID != nil {
		if p.Type == documents.PaymentReceive {
			return p.Amount.Neg()
		}
		return p.Amount
	}
	if p.Type == documents.PaymentPay {
		return p.Amount.Neg()
	}
	return p.Amount
}

// OnPaymentRecorded applies a standalone payment and returns the applied delta.
func (l *Ledger) OnPaymentRecorded(ctx context.Context, tx documents.Tx, p documents.Payment) (decimal.Decimal, error) {
	delta := PaymentDelta(p)
	switch {
	case p.CustomerID != nil:
		if err := tx.AdjustCustomerBalance(ctx, *p.CustomerID, delta); err != nil {
			return decimal.Zero, err
		}
	case p.SupplierID != nil:
		if err := tx.AdjustSupplierBalance(ctx, *p.SupplierID, delta); err != nil {
			return decimal.Zero, err
		}
	default:
		return decimal.Zero, shared.NewValidationError("party", "payment requires a customer or a supplier")
	}
	return delta, nil
}

func (l *Ledger) adjust(ctx context.Context, tx documents.Tx, kind documents.Kind, partyID string, delta decimal.Decimal) error {
	var err error
	if kind == documents.KindPurchase {
		err = tx.AdjustSupplierBalance(ctx, partyID, delta)
	} else {
		err = tx.AdjustCustomerBalance(ctx, partyID, delta)
	}
	if err != nil {
		return err
	}
	l.logger.Debug("party balance adjusted",
		slog.String("kind", string(kind)),
		slog.String("party_id", partyID),
		slog.String("delta", delta.StringFixed(2)))
	return nil
}
