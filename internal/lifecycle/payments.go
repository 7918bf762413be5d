package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/cashbox"
	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// RecordPayment persists a standalone payment and moves the party balance.
// Cashbox payments also write the matching INCOME or guarded EXPENSE entry.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (documents.Payment, error) {
	if err := in.validate(); err != nil {
		return documents.Payment{}, err
	}
	payType, err := documents.ParsePaymentType(in.Type)
	if err != nil {
		return documents.Payment{}, err
	}
	method, err := documents.ParsePaymentMethod(in.PaymentMethod, documents.MethodCash)
	if err != nil {
		return documents.Payment{}, err
	}
	release, err := s.claimIdempotency(ctx, in.IdempotencyKey, "pos.payment")
	if err != nil {
		return documents.Payment{}, err
	}

	payment := documents.Payment{
		Amount:        shared.Round2(in.Amount),
		Type:          payType,
		PaymentMethod: method,
		Notes:         in.Notes,
	}
	if in.CustomerID != nil && *in.CustomerID != "" {
		payment.CustomerID = in.CustomerID
	} else {
		payment.SupplierID = in.SupplierID
	}

	var recorded documents.Payment
	err = s.runUnit(ctx, "record_payment", func(ctx context.Context, tx documents.Tx, fx *effects) error {
		p := payment
		p.ID = uuid.NewString()
		p.CreatedAt = s.now()
		entity := "customer"
		if p.CustomerID != nil {
			if _, err := tx.GetCustomer(ctx, *p.CustomerID); err != nil {
				return err
			}
		} else {
			entity = "supplier"
			if _, err := tx.GetSupplier(ctx, *p.SupplierID); err != nil {
				return err
			}
		}
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}
		delta, err := s.balances.OnPaymentRecorded(ctx, tx, p)
		if err != nil {
			return err
		}
		if p.PaymentMethod == documents.MethodCashbox {
			entry, err := s.cashbox.Append(ctx, tx, s.paymentEntry(p))
			if err != nil {
				return err
			}
			fx.appended(entry)
		}
		fx.record("payment", entity, p.ID, map[string]any{
			"type":   string(p.Type),
			"amount": p.Amount.StringFixed(2),
			"delta":  delta.StringFixed(2),
		})
		recorded = p
		return nil
	})
	if err != nil {
		release()
		return documents.Payment{}, err
	}
	return recorded, nil
}

// paymentEntry mirrors a cashbox payment: money received is INCOME and money
// paid out is EXPENSE, whichever party it involves.
func (s *Service) paymentEntry(p documents.Payment) cashbox.Entry {
	txType := documents.TransactionIncome
	if p.Type == documents.PaymentPay {
		txType = documents.TransactionExpense
	}
	ref := p.ID
	return cashbox.Entry{
		Type:          txType,
		Amount:        p.Amount,
		Description:   s.text.T(shared.MsgPaymentMirror, string(p.Type)),
		Reference:     &ref,
		PaymentMethod: documents.MethodCashbox,
	}
}

// ListPayments lists standalone payments.
func (s *Service) ListPayments(ctx context.Context, filter documents.PaymentFilter) ([]documents.Payment, error) {
	payments, err := s.store.ListPayments(ctx, filter)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []documents.Payment{}
	}
	return payments, nil
}
