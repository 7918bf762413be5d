package documents

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestInvoiceNumberRoundTrip(t *testing.T) {
	assert.Equal(t, "INV-007", FormatInvoiceNumber(KindSale, 7))
	assert.Equal(t, "PUR-1234", FormatInvoiceNumber(KindPurchase, 1234))

	seq, ok := ParseInvoiceSequence("INV-042")
	require.True(t, ok)
	assert.Equal(t, 42, seq)

	seq, ok = ParseInvoiceSequence("INV-123456789012345678")
	require.True(t, ok)
	assert.Equal(t, 123456789012345678, seq)

	for _, bad := range []string{"INV", "INV-", "INV-x1", "INV-3.5", "INV42", "legacy7", "INV-1234567890123456789", "INV-+5"} {
		_, ok := ParseInvoiceSequence(bad)
		assert.False(t, ok, bad)
	}
}

func TestStatusRules(t *testing.T) {
	assert.True(t, StatusCancelled.Voided())
	assert.True(t, StatusRefunded.Voided())
	assert.True(t, StatusReturned.Voided())
	assert.False(t, StatusPending.Voided())
	assert.False(t, StatusCompleted.Voided())

	assert.True(t, StatusRefunded.AllowedFor(KindSale))
	assert.False(t, StatusRefunded.AllowedFor(KindPurchase))
	assert.True(t, StatusReturned.AllowedFor(KindPurchase))
	assert.False(t, StatusReturned.AllowedFor(KindSale))
	assert.True(t, StatusCancelled.AllowedFor(KindPurchase))
}

func TestParsers(t *testing.T) {
	status, err := ParseStatus(" completed ")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)

	_, err = ParseStatus("ARCHIVED")
	assert.ErrorIs(t, err, shared.ErrValidation)

	method, err := ParsePaymentMethod("", MethodCash)
	require.NoError(t, err)
	assert.Equal(t, MethodCash, method)

	method, err = ParsePaymentMethod("bank_transfer", MethodCash)
	require.NoError(t, err)
	assert.Equal(t, MethodBankTransfer, method)

	_, err = ParsePaymentMethod("cheque", MethodCash)
	assert.ErrorIs(t, err, shared.ErrValidation)

	txType, err := ParseTransactionType("expense")
	require.NoError(t, err)
	assert.Equal(t, TransactionIncome, txType.Opposite())

	_, err = ParsePaymentType("refund")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestInvoiceRemaining(t *testing.T) {
	inv := Invoice{TotalAmount: decimal.RequireFromString("100"), PaidAmount: decimal.RequireFromString("120")}
	assert.True(t, inv.Remaining().Equal(decimal.RequireFromString("-20")))
	assert.False(t, inv.HasParty())

	empty := ""
	inv.PartyID = &empty
	assert.False(t, inv.HasParty())
	inv.PartyID = StringPtr("c1")
	assert.True(t, inv.HasParty())
}

func TestPriceForFallsBackToBasePrice(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("10"), Price2: decimal.RequireFromString("9")}
	assert.Equal(t, "9", p.PriceFor(PriceTier2).String())
	assert.Equal(t, "10", p.PriceFor(PriceTier3).String())
	assert.Equal(t, "10", p.PriceFor(PriceTier1).String())
}

func TestCashboxSigned(t *testing.T) {
	out := CashboxTransaction{Type: TransactionExpense, Amount: decimal.RequireFromString("5")}
	assert.Equal(t, "-5", out.Signed().String())
	out.Type = TransactionIncome
	assert.Equal(t, "5", out.Signed().String())
}
