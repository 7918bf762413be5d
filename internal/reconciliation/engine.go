// Package reconciliation is the Reconciliation Engine. It recomputes each
// party's balance from document history alone and reports where the stored
// running balance disagrees. It reports drift and never corrects it.
package reconciliation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// PartyKind selects customers or suppliers.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// DocumentKind returns the invoice kind that feeds the party's balance.
func (k PartyKind) DocumentKind() documents.Kind {
	if k == PartySupplier {
		return documents.KindPurchase
	}
	return documents.KindSale
}

// Row is one audited party.
type Row struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Stored            decimal.Decimal `json:"stored"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	PaymentAdjustment decimal.Decimal `json:"paymentAdjustment"`
	Computed          decimal.Decimal `json:"computed"`
	Diff              decimal.Decimal `json:"diff"`
}

// Drifted reports whether the stored balance disagrees with history.
func (r Row) Drifted() bool {
	return !r.Diff.IsZero()
}

// Party is the minimum the engine needs to know about a customer or supplier.
type Party struct {
	ID      string
	Name    string
	Balance decimal.Decimal
}

// Outstanding sums the unpaid remainders of documents that still count.
// Voided documents contribute nothing and overpayments never go negative.
func Outstanding(invoices []documents.Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		if inv.Status.Voided() {
			continue
		}
		total = total.Add(shared.PositiveOrZero(inv.Remaining()))
	}
	return total
}

// PaymentAdjustment sums signed payments. For customers RECEIVE lowers the
// receivable; for suppliers PAY lowers the payable. The other type raises it.
func PaymentAdjustment(kind PartyKind, payments []documents.Payment) decimal.Decimal {
	reducing := documents.PaymentReceive
	if kind == PartySupplier {
		reducing = documents.PaymentPay
	}
	total := decimal.Zero
	for _, p := range payments {
		if p.Type == reducing {
			total = total.Sub(p.Amount)
		} else {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Audit recomputes one party's balance.
func Audit(kind PartyKind, party Party, invoices []documents.Invoice, payments []documents.Payment) Row {
	outstanding := Outstanding(invoices)
	adjustment := PaymentAdjustment(kind, payments)
	computed := outstanding.Add(adjustment)
	return Row{
		ID:                party.ID,
		Name:              party.Name,
		Stored:            shared.Round2(party.Balance),
		Outstanding:       shared.Round2(outstanding),
		PaymentAdjustment: shared.Round2(adjustment),
		Computed:          shared.Round2(computed),
		Diff:              shared.Round2(party.Balance.Sub(computed)),
	}
}

// AuditAll audits every party against documents and payments grouped by
// party id. Rows keep the order of parties.
func AuditAll(kind PartyKind, parties []Party, invoices []documents.Invoice, payments []documents.Payment) []Row {
	byParty := make(map[string][]documents.Invoice)
	for _, inv := range invoices {
		if !inv.HasParty() {
			continue
		}
		byParty[*inv.PartyID] = append(byParty[*inv.PartyID], inv)
	}
	paid := make(map[string][]documents.Payment)
	for _, p := range payments {
		if id := paymentParty(kind, p); id != "" {
			paid[id] = append(paid[id], p)
		}
	}
	rows := make([]Row, 0, len(parties))
	for _, party := range parties {
		rows = append(rows, Audit(kind, party, byParty[party.ID], paid[party.ID]))
	}
	return rows
}

func paymentParty(kind PartyKind, p documents.Payment) string {
	if kind == PartySupplier {
		if p.SupplierID != nil {
			return *p.SupplierID
		}
		return ""
	}
	if p.CustomerID != nil {
		return *p.CustomerID
	}
	return ""
}

// Summary aggregates an audit run.
type Summary struct {
	Parties    int             `json:"parties"`
	Drifted    int             `json:"drifted"`
	TotalDrift decimal.Decimal `json:"totalDrift"`
}

// Summarize counts drifted rows and sums their absolute diff.
func Summarize(rows []Row) Summary {
	s := Summary{Parties: len(rows), TotalDrift: decimal.Zero}
	for _, r := range rows {
		if r.Drifted() {
			s.Drifted++
			s.TotalDrift = s.TotalDrift.Add(r.Diff.Abs())
		}
	}
	return s
}

// DriftedOnly filters rows to those with a non-zero diff, largest first.
func DriftedOnly(rows []Row) []Row {
	out := make([]Row, 0)
	for _, r := range rows {
		if r.Drifted() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Diff.Abs().GreaterThan(out[j].Diff.Abs())
	})
	return out
}
