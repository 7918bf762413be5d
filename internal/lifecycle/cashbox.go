package lifecycle

import (
	"context"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/cashbox"
	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

var _ cashbox.Writer = (*Service)(nil)

// AddCashboxTransaction appends a manual cashbox entry. EXPENSE entries are
// rejected when the recomputed balance cannot cover them.
func (s *Service) AddCashboxTransaction(ctx context.Context, in cashbox.AddInput) (documents.CashboxTransaction, error) {
	entry, err := in.Entry()
	if err != nil {
		return documents.CashboxTransaction{}, err
	}
	var created documents.CashboxTransaction
	err = s.runUnit(ctx, "add_cashbox_"+strings.ToLower(string(entry.Type)), func(ctx context.Context, tx documents.Tx, fx *effects) error {
		appended, err := s.cashbox.Append(ctx, tx, entry)
		if err != nil {
			return err
		}
		fx.appended(appended)
		fx.record("create", "cashbox_transaction", appended.ID, map[string]any{
			"type":   string(appended.Type),
			"amount": appended.Amount.StringFixed(2),
		})
		created = appended
		return nil
	})
	if err != nil {
		return documents.CashboxTransaction{}, err
	}
	return created, nil
}
