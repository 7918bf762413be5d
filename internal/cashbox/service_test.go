package cashbox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/documents/memstore"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type recordingObserver struct {
	entries []documents.CashboxTransaction
}

func (o *recordingObserver) CashboxEntryAppended(e documents.CashboxTransaction) {
	o.entries = append(o.entries, e)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, window int) (*Service, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	return NewService(memstore.New(), quietLogger(), Config{Window: window, Observer: obs}), obs
}

// unitWriter appends each entry in its own unit of work and notifies the
// observer after commit.
type unitWriter struct {
	svc *Service
}

func (w unitWriter) AddCashboxTransaction(ctx context.Context, in AddInput) (documents.CashboxTransaction, error) {
	entry, err := in.Entry()
	if err != nil {
		return documents.CashboxTransaction{}, err
	}
	var created documents.CashboxTransaction
	err = w.svc.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		var err error
		created, err = w.svc.Append(ctx, tx, entry)
		return err
	})
	if err != nil {
		return documents.CashboxTransaction{}, err
	}
	w.svc.Notify(created)
	return created, nil
}

func add(t *testing.T, svc *Service, txType, amount string) (documents.CashboxTransaction, error) {
	t.Helper()
	return unitWriter{svc: svc}.AddCashboxTransaction(context.Background(), AddInput{
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Description: "manual " + txType,
	})
}

func TestExpenseGuard(t *testing.T) {
	svc, obs := newService(t, 0)

	_, err := add(t, svc, "EXPENSE", "10")
	require.ErrorIs(t, err, shared.ErrInsufficientCashbox)

	_, err = add(t, svc, "income", "100")
	require.NoError(t, err)
	_, err = add(t, svc, "EXPENSE", "100")
	require.NoError(t, err)

	_, err = add(t, svc, "EXPENSE", "0.01")
	var insufficient *shared.InsufficientCashboxError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Balance.IsZero())
	assert.Equal(t, "0.01", insufficient.Requested.String())

	balance, err := svc.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.Len(t, obs.entries, 2)
}

func TestAppendRoundsAndRejectsNonPositive(t *testing.T) {
	svc, _ := newService(t, 0)
	store := svc.store

	err := store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		entry, err := svc.Append(ctx, tx, Entry{Type: documents.TransactionIncome, Amount: decimal.RequireFromString("10.005"), Description: "rounding"})
		require.NoError(t, err)
		assert.Equal(t, "10.01", entry.Amount.String())
		assert.Equal(t, documents.MethodCash, entry.PaymentMethod)
		return nil
	})
	require.NoError(t, err)

	err = store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		_, err := svc.Append(ctx, tx, Entry{Type: documents.TransactionIncome, Amount: decimal.RequireFromString("0.001")})
		return err
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		_, err := svc.Append(ctx, tx, Entry{Type: "REFUND", Amount: decimal.NewFromInt(1)})
		return err
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAddInputEntry(t *testing.T) {
	_, err := AddInput{Type: "INCOME", Amount: decimal.NewFromInt(5)}.Entry()
	assert.ErrorIs(t, err, shared.ErrValidation, "description is required")

	_, err = AddInput{Type: "TRANSFER", Amount: decimal.NewFromInt(5), Description: "x"}.Entry()
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = AddInput{Type: "INCOME", Amount: decimal.NewFromInt(5), Description: "x", PaymentMethod: "BARTER"}.Entry()
	assert.ErrorIs(t, err, shared.ErrValidation)

	entry, err := AddInput{Type: "expense", Amount: decimal.NewFromInt(5), Description: "x", PaymentMethod: "card"}.Entry()
	require.NoError(t, err)
	assert.Equal(t, documents.TransactionExpense, entry.Type)
	assert.Equal(t, documents.MethodCard, entry.PaymentMethod)
}

func TestSummaryNewestFirstWithinWindow(t *testing.T) {
	svc, _ := newService(t, 2)
	for _, amount := range []string{"10", "20", "30"} {
		_, err := add(t, svc, "INCOME", amount)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "60.00", summary.BalanceFormatted)
	require.Len(t, summary.Transactions, 2)
	assert.Equal(t, "30", summary.Transactions[0].Amount.String())
	assert.Equal(t, "20", summary.Transactions[1].Amount.String())

	summary, err = svc.Summary(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, summary.Transactions, 3)
}

func TestSummaryEmptyLog(t *testing.T) {
	svc, _ := newService(t, 0)
	summary, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, summary.Transactions)
	assert.Equal(t, "0.00", summary.BalanceFormatted)
}

func TestHandlerRoutes(t *testing.T) {
	svc, _ := newService(t, 0)
	r := chi.NewRouter()
	NewHandler(svc, unitWriter{svc: svc}, quietLogger()).MountRoutes(r)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/", `{"type":"INCOME","amount":"25.5","description":"float"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(http.MethodPost, "/", `{"type":"EXPENSE","amount":"30","description":"too much"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(http.MethodGet, "/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balance":"25.50"}`, rec.Body.String())

	rec = do(http.MethodGet, "/?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balanceFormatted":"25.50"`)
}
