package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func invoice(party, total, paid string, status documents.Status) documents.Invoice {
	return documents.Invoice{
		Kind:        documents.KindSale,
		PartyID:     &party,
		TotalAmount: dec(total),
		PaidAmount:  dec(paid),
		Status:      status,
	}
}

func TestOutstandingSkipsVoidedAndClampsOverpayment(t *testing.T) {
	got := Outstanding([]documents.Invoice{
		invoice("c1", "300", "100", documents.StatusCompleted),
		invoice("c1", "50", "80", documents.StatusCompleted),
		invoice("c1", "500", "0", documents.StatusCancelled),
		invoice("c1", "70", "0", documents.StatusRefunded),
		invoice("c1", "40", "10", documents.StatusPending),
	})
	assert.True(t, dec("230").Equal(got), got.String())
}

func TestPaymentAdjustmentSignsByPartyKind(t *testing.T) {
	c := "c1"
	payments := []documents.Payment{
		{CustomerID: &c, Type: documents.PaymentReceive, Amount: dec("50")},
		{CustomerID: &c, Type: documents.PaymentPay, Amount: dec("20")},
	}
	assert.True(t, dec("-30").Equal(PaymentAdjustment(PartyCustomer, payments)))
	assert.True(t, dec("30").Equal(PaymentAdjustment(PartySupplier, payments)))
}

func TestAuditAgreesWithCorrectHistory(t *testing.T) {
	c := "c1"
	row := Audit(PartyCustomer,
		Party{ID: c, Name: "Ali", Balance: dec("150")},
		[]documents.Invoice{invoice(c, "300", "100", documents.StatusCompleted)},
		[]documents.Payment{{CustomerID: &c, Type: documents.PaymentReceive, Amount: dec("50")}},
	)
	assert.Equal(t, "Ali", row.Name)
	assert.True(t, dec("200").Equal(row.Outstanding))
	assert.True(t, dec("-50").Equal(row.PaymentAdjustment))
	assert.True(t, dec("150").Equal(row.Computed))
	assert.True(t, row.Diff.IsZero())
	assert.False(t, row.Drifted())
}

func TestAuditReportsDriftWithoutCorrecting(t *testing.T) {
	party := Party{ID: "c1", Balance: dec("210.004")}
	row := Audit(PartyCustomer, party, []documents.Invoice{invoice("c1", "200", "0", documents.StatusCompleted)}, nil)
	assert.True(t, dec("10").Equal(row.Diff), row.Diff.String())
	assert.True(t, row.Drifted())
	assert.True(t, dec("210.004").Equal(party.Balance))
}

func TestAuditAllGroupsByParty(t *testing.T) {
	a, b := "a", "b"
	parties := []Party{
		{ID: a, Name: "A", Balance: dec("100")},
		{ID: b, Name: "B", Balance: dec("0")},
		{ID: "c", Name: "C", Balance: dec("-25")},
	}
	invoices := []documents.Invoice{
		invoice(a, "100", "0", documents.StatusCompleted),
		invoice(b, "60", "0", documents.StatusCompleted),
		{Kind: documents.KindSale, TotalAmount: dec("999"), Status: documents.StatusCompleted},
	}
	payments := []documents.Payment{{CustomerID: &b, Type: documents.PaymentReceive, Amount: dec("60")}}

	rows := AuditAll(PartyCustomer, parties, invoices, payments)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.False(t, rows[0].Drifted())
	assert.False(t, rows[1].Drifted())
	assert.True(t, dec("-25").Equal(rows[2].Diff))

	summary := Summarize(rows)
	assert.Equal(t, 3, summary.Parties)
	assert.Equal(t, 1, summary.Drifted)
	assert.True(t, dec("25").Equal(summary.TotalDrift))
}

func TestDriftedOnlyOrdersByMagnitude(t *testing.T) {
	rows := []Row{
		{ID: "small", Diff: dec("1")},
		{ID: "clean", Diff: decimal.Zero},
		{ID: "large", Diff: dec("-40")},
		{ID: "mid", Diff: dec("12.5")},
	}
	got := DriftedOnly(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "large", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "small", got[2].ID)
}

func TestSupplierKindUsesPurchases(t *testing.T) {
	assert.Equal(t, documents.KindPurchase, PartySupplier.DocumentKind())
	assert.Equal(t, documents.KindSale, PartyCustomer.DocumentKind())
}
