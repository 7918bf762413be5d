package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/cashbox"
	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// CreateExpense records an expense. A cashbox-paid expense appends a guarded
// EXPENSE entry and fails with InsufficientCashboxError when the box is short.
func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput) (documents.Expense, error) {
	if err := in.validate(); err != nil {
		return documents.Expense{}, err
	}
	method, err := documents.ParsePaymentMethod(in.PaymentMethod, documents.MethodCash)
	if err != nil {
		return documents.Expense{}, err
	}
	var created documents.Expense
	err = s.runUnit(ctx, "create_expense", func(ctx context.Context, tx documents.Tx, fx *effects) error {
		now := s.now()
		e := documents.Expense{
			ID:            uuid.NewString(),
			Title:         in.Title,
			Description:   in.Description,
			Amount:        shared.Round2(in.Amount),
			Category:      in.Category,
			Date:          now,
			PaymentMethod: method,
			ReceiptURL:    in.ReceiptURL,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if in.Date != nil {
			e.Date = in.Date.UTC()
		}
		if err := tx.InsertExpense(ctx, e); err != nil {
			return err
		}
		if e.PaymentMethod == documents.MethodCashbox {
			entry, err := s.cashbox.Append(ctx, tx, s.expenseEntry(e, documents.TransactionExpense, e.Amount))
			if err != nil {
				return err
			}
			fx.appended(entry)
		}
		fx.record("create", "expense", e.ID, map[string]any{"amount": e.Amount.StringFixed(2), "method": string(e.PaymentMethod)})
		created = e
		return nil
	})
	if err != nil {
		return documents.Expense{}, err
	}
	return created, nil
}

// UpdateExpense replaces an expense and keeps the cashbox in step: leaving
// the cashbox refunds the old amount, joining it draws the new amount, and
// an amount change on a cashbox expense moves only the difference.
func (s *Service) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (documents.Expense, error) {
	if err := in.validate(); err != nil {
		return documents.Expense{}, err
	}
	method, err := documents.ParsePaymentMethod(in.PaymentMethod, documents.MethodCash)
	if err != nil {
		return documents.Expense{}, err
	}
	var updated documents.Expense
	err = s.runUnit(ctx, "update_expense", func(ctx context.Context, tx documents.Tx, fx *effects) error {
		old, err := tx.GetExpenseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		e := old
		e.Title = in.Title
		e.Description = in.Description
		e.Amount = shared.Round2(in.Amount)
		e.Category = in.Category
		e.PaymentMethod = method
		e.ReceiptURL = in.ReceiptURL
		e.UpdatedAt = s.now()
		if in.Date != nil {
			e.Date = in.Date.UTC()
		}

		for _, adj := range cashboxAdjustments(old, e) {
			entry, err := s.cashbox.Append(ctx, tx, s.expenseEntry(e, adj.kind, adj.amount))
			if err != nil {
				return err
			}
			fx.appended(entry)
		}
		if err := tx.UpdateExpense(ctx, e); err != nil {
			return err
		}
		fx.record("update", "expense", id, map[string]any{
			"old_amount": old.Amount.StringFixed(2),
			"new_amount": e.Amount.StringFixed(2),
			"old_method": string(old.PaymentMethod),
			"new_method": string(e.PaymentMethod),
		})
		updated = e
		return nil
	})
	if err != nil {
		return documents.Expense{}, err
	}
	return updated, nil
}

// DeleteExpense removes an expense, refunding the cashbox when it was paid from it.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	return s.runUnit(ctx, "delete_expense", func(ctx context.Context, tx documents.Tx, fx *effects) error {
		e, err := tx.GetExpenseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if e.PaymentMethod == documents.MethodCashbox {
			entry, err := s.cashbox.Append(ctx, tx, s.expenseEntry(e, documents.TransactionIncome, e.Amount))
			if err != nil {
				return err
			}
			fx.appended(entry)
		}
		if err := tx.DeleteExpense(ctx, id); err != nil {
			return err
		}
		fx.record("delete", "expense", id, map[string]any{"amount": e.Amount.StringFixed(2)})
		return nil
	})
}

type adjustment struct {
	kind   documents.TransactionType
	amount decimal.Decimal
}

// cashboxAdjustments lists the cashbox entries that turn the cashbox effect
// of before into that of after.
func cashboxAdjustments(before, after documents.Expense) []adjustment {
	wasCashbox := before.PaymentMethod == documents.MethodCashbox
	isCashbox := after.PaymentMethod == documents.MethodCashbox
	switch {
	case wasCashbox && !isCashbox:
		return []adjustment{{documents.TransactionIncome, before.Amount}}
	case !wasCashbox && isCashbox:
		return []adjustment{{documents.TransactionExpense, after.Amount}}
	case wasCashbox && isCashbox:
		diff := after.Amount.Sub(before.Amount)
		if diff.IsPositive() {
			return []adjustment{{documents.TransactionExpense, diff}}
		}
		if diff.IsNegative() {
			return []adjustment{{documents.TransactionIncome, diff.Neg()}}
		}
	}
	return nil
}

func (s *Service) expenseEntry(e documents.Expense, txType documents.TransactionType, amount decimal.Decimal) cashbox.Entry {
	key := shared.MsgExpenseMirror
	if txType == documents.TransactionIncome {
		key = shared.MsgExpenseRefund
	}
	ref := e.ID
	return cashbox.Entry{
		Type:          txType,
		Amount:        amount,
		Description:   s.text.T(key, e.Title),
		Reference:     &ref,
		PaymentMethod: documents.MethodCashbox,
	}
}

// GetExpense returns one expense.
func (s *Service) GetExpense(ctx context.Context, id string) (documents.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// ListExpenses lists expenses.
func (s *Service) ListExpenses(ctx context.Context, filter documents.ExpenseFilter) ([]documents.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, filter)
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []documents.Expense{}
	}
	return expenses, nil
}
