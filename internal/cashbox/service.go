// Package cashbox is the Cashbox Accessor. The balance is never stored: it is
// always the sum of INCOME minus EXPENSE over the whole transaction log.
package cashbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// DefaultWindow is the number of recent transactions returned by Summary.
const DefaultWindow = 100

// Entry describes a cashbox transaction to append.
type Entry struct {
	Type          documents.TransactionType
	Amount        decimal.Decimal
	Description   string
	Reference     *string
	PaymentMethod documents.PaymentMethod
}

// AddInput is the manual cashbox entry request.
type AddInput struct {
	Type          string          `json:"type" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" validate:"required,max=500"`
	Reference     *string         `json:"reference,omitempty"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Summary is the cashbox position plus the most recent transactions.
type Summary struct {
	Balance          decimal.Decimal                `json:"balance"`
	BalanceFormatted string                         `json:"balanceFormatted"`
	Transactions     []documents.CashboxTransaction `json:"transactions"`
}

// Observer is notified after entries are appended.
type Observer interface {
	CashboxEntryAppended(entry documents.CashboxTransaction)
}

// Service reads and appends cashbox transactions.
type Service struct {
	store    documents.Store
	logger   *slog.Logger
	window   int
	observer Observer
	now      func() time.Time
}

// Config groups optional settings.
type Config struct {
	Window   int
	Observer Observer
}

// NewService builds Service.
func NewService(store documents.Store, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{store: store, logger: logger, window: window, observer: cfg.Observer, now: func() time.Time { return time.Now().UTC() }}
}

// Balance returns Σ INCOME − Σ EXPENSE over the full log.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, error) {
	return s.store.CashboxBalance(ctx)
}

// Summary returns the balance and the latest limit transactions.
func (s *Service) Summary(ctx context.Context, limit int) (Summary, error) {
	if limit <= 0 {
		limit = s.window
	}
	balance, err := s.store.CashboxBalance(ctx)
	if err != nil {
		return Summary{}, err
	}
	txs, err := s.store.ListCashboxTransactions(ctx, limit)
	if err != nil {
		return Summary{}, err
	}
	if txs == nil {
		txs = []documents.CashboxTransaction{}
	}
	return Summary{Balance: balance, BalanceFormatted: shared.FormatMoney(balance), Transactions: txs}, nil
}

// Entry validates the request and converts it into an Entry.
func (in AddInput) Entry() (Entry, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Entry{}, err
	}
	txType, err := documents.ParseTransactionType(in.Type)
	if err != nil {
		return Entry{}, err
	}
	method, err := documents.ParsePaymentMethod(in.PaymentMethod, documents.MethodCash)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Type: txType, Amount: in.Amount, Description: in.Description, Reference: in.Reference, PaymentMethod: method}, nil
}

// Writer appends manual cashbox transactions in their own unit of work,
// with the audit record and cache invalidation that go with it.
type Writer interface {
	AddCashboxTransaction(ctx context.Context, in AddInput) (documents.CashboxTransaction, error)
}

// Append writes one entry inside the caller's unit of work. EXPENSE entries
// claim the cashbox guard first and are rejected when they exceed the balance.
func (s *Service) Append(ctx context.Context, tx documents.Tx, e Entry) (documents.CashboxTransaction, error) {
	if !e.Type.Valid() {
		return documents.CashboxTransaction{}, shared.NewValidationError("type", "must be INCOME or EXPENSE")
	}
	e.Amount = shared.Round2(e.Amount)
	if !e.Amount.IsPositive() {
		return documents.CashboxTransaction{}, shared.NewValidationError("amount", "must be greater than zero")
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = documents.MethodCash
	}
	if e.Type == documents.TransactionExpense {
		if err := tx.LockCashbox(ctx); err != nil {
			return documents.CashboxTransaction{}, err
		}
		balance, err := tx.CashboxBalance(ctx)
		if err != nil {
			return documents.CashboxTransaction{}, err
		}
		if balance.LessThan(e.Amount) {
			return documents.CashboxTransaction{}, &shared.InsufficientCashboxError{Balance: balance, Requested: e.Amount}
		}
	}
	entry := documents.CashboxTransaction{
		ID:            uuid.NewString(),
		Type:          e.Type,
		Amount:        e.Amount,
		Description:   e.Description,
		Reference:     e.Reference,
		PaymentMethod: e.PaymentMethod,
		CreatedAt:     s.now(),
	}
	if err := tx.InsertCashboxTransaction(ctx, entry); err != nil {
		return documents.CashboxTransaction{}, err
	}
	s.logger.Info("cashbox entry appended",
		slog.String("id", entry.ID),
		slog.String("type", string(entry.Type)),
		slog.String("amount", entry.Amount.StringFixed(2)))
	return entry, nil
}

// Notify reports committed entries to the observer.
func (s *Service) Notify(entries ...documents.CashboxTransaction) {
	if s.observer == nil {
		return
	}
	for _, e := range entries {
		s.observer.CashboxEntryAppended(e)
	}
}
