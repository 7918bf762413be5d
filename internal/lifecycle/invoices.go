package lifecycle

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/balances"
	"github.com/odyssey-erp/odyssey-pos/internal/cashbox"
	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// CreateSale records a sale: stock out, receivable up by the unpaid
// remainder, and an INCOME cashbox entry when paid through the cashbox.
func (s *Service) CreateSale(ctx context.Context, in CreateInvoiceInput) (documents.Invoice, error) {
	return s.createInvoice(ctx, documents.KindSale, in)
}

// CreatePurchase records a purchase: stock in, payable up by the unpaid
// remainder, and a guarded EXPENSE cashbox entry when paid through the cashbox.
func (s *Service) CreatePurchase(ctx context.Context, in CreateInvoiceInput) (documents.Invoice, error) {
	return s.createInvoice(ctx, documents.KindPurchase, in)
}

func (s *Service) createInvoice(ctx context.Context, kind documents.Kind, in CreateInvoiceInput) (documents.Invoice, error) {
	if err := in.validate(); err != nil {
		return documents.Invoice{}, err
	}
	method, err := documents.ParsePaymentMethod(in.PaymentMethod, documents.MethodCash)
	if err != nil {
		return documents.Invoice{}, err
	}
	partyID := in.PartyID
	if partyID != nil && *partyID == "" {
		partyID = nil
	}

	release, err := s.claimIdempotency(ctx, in.IdempotencyKey, "pos."+kind.Entity())
	if err != nil {
		return documents.Invoice{}, err
	}
	unlock, err := s.locker.Acquire(ctx, kind)
	if err != nil {
		release()
		return documents.Invoice{}, err
	}
	defer unlock()

	var created documents.Invoice
	err = s.runUnit(ctx, "create_"+kind.Entity(), func(ctx context.Context, tx documents.Tx, fx *effects) error {
		if partyID != nil {
			if err := verifyParty(ctx, tx, kind, *partyID); err != nil {
				return err
			}
		}
		lines := make([]inventory.Line, 0, len(in.Items))
		for _, item := range in.Items {
			lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		var moveErr error
		if kind == documents.KindSale {
			_, moveErr = s.stock.ApplySale(ctx, tx, lines)
		} else {
			_, moveErr = s.stock.ApplyPurchase(ctx, tx, lines)
		}
		if moveErr != nil {
			return moveErr
		}

		seq, err := tx.MaxInvoiceSequence(ctx, kind)
		if err != nil {
			return err
		}
		now := s.now()
		inv := documents.Invoice{
			ID:            uuid.NewString(),
			Kind:          kind,
			InvoiceNumber: documents.FormatInvoiceNumber(kind, seq+1),
			PartyID:       partyID,
			TotalAmount:   shared.Round2(in.TotalAmount),
			PaidAmount:    shared.Round2(in.PaidAmount),
			Discount:      shared.Round2(in.Discount),
			Tax:           shared.Round2(in.Tax),
			Status:        documents.StatusCompleted,
			PaymentMethod: method,
			Notes:         in.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		inv.BalanceDelta = balances.CreationDelta(inv)
		inv.Items = make([]documents.Item, 0, len(in.Items))
		for _, item := range in.Items {
			inv.Items = append(inv.Items, documents.Item{
				ID:        uuid.NewString(),
				InvoiceID: inv.ID,
				ProductID: item.ProductID,
				Price:     shared.Round2(item.Price),
				Quantity:  item.Quantity,
				Discount:  shared.Round2(item.Discount),
				Total:     item.lineTotal(),
			})
		}
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return err
		}
		if _, err := s.balances.OnCreated(ctx, tx, inv); err != nil {
			return err
		}
		if inv.PaymentMethod == documents.MethodCashbox && inv.PaidAmount.IsPositive() {
			entry, err := s.cashbox.Append(ctx, tx, s.mirrorEntry(inv, false))
			if err != nil {
				return err
			}
			fx.appended(entry)
		}
		fx.record("create", kind.Entity(), inv.ID, map[string]any{
			"invoice_number": inv.InvoiceNumber,
			"total":          inv.TotalAmount.StringFixed(2),
			"paid":           inv.PaidAmount.StringFixed(2),
			"balance_delta":  inv.BalanceDelta.StringFixed(2),
		})
		created = inv
		return nil
	})
	if err != nil {
		release()
		return documents.Invoice{}, err
	}
	s.logger.Info("document created",
		slog.String("kind", string(kind)),
		slog.String("id", created.ID),
		slog.String("invoice_number", created.InvoiceNumber))
	return created, nil
}

// UpdateStatus moves a document to status. Moving into a voided status
// reverses its ledger effects first; voided documents are terminal.
// PENDING and COMPLETED swap without touching any ledger.
func (s *Service) UpdateStatus(ctx context.Context, kind documents.Kind, id string, status documents.Status) (documents.Invoice, error) {
	if !status.AllowedFor(kind) {
		return documents.Invoice{}, shared.NewValidationError("status", "status "+string(status)+" does not apply to "+kind.Entity())
	}
	var updated documents.Invoice
	err := s.runUnit(ctx, "status_"+kind.Entity(), func(ctx context.Context, tx documents.Tx, fx *effects) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if inv.Status == status {
			updated = inv
			return nil
		}
		if inv.Status.Voided() {
			return &shared.StatusTransitionError{From: string(inv.Status), To: string(status)}
		}
		if status.Voided() {
			if err := s.void(ctx, tx, inv, fx); err != nil {
				return err
			}
		}
		now := s.now()
		if err := tx.UpdateInvoiceStatus(ctx, kind, id, status, now); err != nil {
			return err
		}
		fx.record("status", kind.Entity(), id, map[string]any{"from": string(inv.Status), "to": string(status)})
		inv.Status = status
		inv.UpdatedAt = now
		updated = inv
		return nil
	})
	if err != nil {
		return documents.Invoice{}, err
	}
	return updated, nil
}

// CancelDocument is UpdateStatus to CANCELLED.
func (s *Service) CancelDocument(ctx context.Context, kind documents.Kind, id string) (documents.Invoice, error) {
	return s.UpdateStatus(ctx, kind, id, documents.StatusCancelled)
}

// DeleteDocument removes a document. A live document is voided first so its
// ledger effects disappear with it; an already voided one was reversed when
// it was voided and is simply removed.
func (s *Service) DeleteDocument(ctx context.Context, kind documents.Kind, id string) error {
	return s.runUnit(ctx, "delete_"+kind.Entity(), func(ctx context.Context, tx documents.Tx, fx *effects) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if !inv.Status.Voided() {
			if err := s.void(ctx, tx, inv, fx); err != nil {
				return err
			}
		}
		if err := tx.DeleteInvoice(ctx, kind, id); err != nil {
			return err
		}
		fx.record("delete", kind.Entity(), id, map[string]any{
			"invoice_number": inv.InvoiceNumber,
			"status":         string(inv.Status),
		})
		return nil
	})
}

// void reverses the stock, balance and cashbox effects of a live document.
func (s *Service) void(ctx context.Context, tx documents.Tx, inv documents.Invoice, fx *effects) error {
	lines := inventory.LinesFromItems(inv.Items)
	var err error
	if inv.Kind == documents.KindSale {
		_, err = s.stock.ReverseSale(ctx, tx, lines)
	} else {
		_, err = s.stock.ReversePurchase(ctx, tx, lines)
	}
	if err != nil {
		return err
	}
	if s.policy == CancelPolicySymmetric {
		if _, err := s.balances.OnCancelled(ctx, tx, inv); err != nil {
			return err
		}
	}
	if inv.PaymentMethod == documents.MethodCashbox && inv.PaidAmount.IsPositive() {
		entry, err := s.cashbox.Append(ctx, tx, s.mirrorEntry(inv, true))
		if err != nil {
			return err
		}
		fx.appended(entry)
	}
	return nil
}

// mirrorEntry builds the cashbox entry for a document paid through the
// cashbox, or its reversal.
func (s *Service) mirrorEntry(inv documents.Invoice, reversal bool) cashbox.Entry {
	txType := documents.TransactionIncome
	key := shared.MsgSaleMirror
	if inv.Kind == documents.KindPurchase {
		txType = documents.TransactionExpense
		key = shared.MsgPurchaseMirror
	}
	if reversal {
		txType = txType.Opposite()
		key = shared.MsgSaleReversal
		if inv.Kind == documents.KindPurchase {
			key = shared.MsgPurchaseReversal
		}
	}
	ref := inv.ID
	return cashbox.Entry{
		Type:          txType,
		Amount:        inv.PaidAmount,
		Description:   s.text.T(key, inv.InvoiceNumber),
		Reference:     &ref,
		PaymentMethod: documents.MethodCashbox,
	}
}

// GetDocument returns a document with its items.
func (s *Service) GetDocument(ctx context.Context, kind documents.Kind, id string) (documents.Invoice, error) {
	return s.store.GetInvoice(ctx, kind, id)
}

// ListDocuments lists document headers of one kind.
func (s *Service) ListDocuments(ctx context.Context, filter documents.InvoiceFilter) ([]documents.Invoice, error) {
	if !filter.Kind.Valid() {
		return nil, shared.NewValidationError("kind", "is required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.NewValidationError("status", "unknown status")
	}
	invoices, err := s.store.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []documents.Invoice{}
	}
	return invoices, nil
}

// documentTotals summarises a listing for report headers.
type documentTotals struct {
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

func totalsOf(invoices []documents.Invoice) documentTotals {
	t := documentTotals{Total: decimal.Zero, Paid: decimal.Zero, Remaining: decimal.Zero}
	for _, inv := range invoices {
		if inv.Status.Voided() {
			continue
		}
		t.Count++
		t.Total = t.Total.Add(inv.TotalAmount)
		t.Paid = t.Paid.Add(inv.PaidAmount)
		t.Remaining = t.Remaining.Add(shared.PositiveOrZero(inv.Remaining()))
	}
	return t
}
