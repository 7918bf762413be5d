package reconciliation

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// OpenInvoice is a live document with an unpaid remainder.
type OpenInvoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Total         decimal.Decimal `json:"total"`
	Paid          decimal.Decimal `json:"paid"`
	Remaining     decimal.Decimal `json:"remaining"`
	CreatedAt     time.Time       `json:"createdAt"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Overdue       bool            `json:"overdue"`
}

// PartyBalance is one line of the receivables or payables report.
type PartyBalance struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Invoices    []OpenInvoice   `json:"invoices"`
}

// BalancesReport lists parties that owe or are owed, largest balance first.
type BalancesReport struct {
	Kind        PartyKind       `json:"kind"`
	AsOf        time.Time       `json:"asOf"`
	Parties     []PartyBalance  `json:"parties"`
	TotalStored decimal.Decimal `json:"totalStored"`
	Aging       AgingBuckets    `json:"aging"`
}

// Receivables lists customers with a positive balance or open sales.
func (s *Service) Receivables(ctx context.Context, asOf time.Time) (BalancesReport, error) {
	var (
		customers []documents.Customer
		invoices  []documents.Invoice
	)
	err := s.store.Snapshot(ctx, func(ctx context.Context, r documents.Reader) error {
		var err error
		if customers, err = r.ListCustomers(ctx, documents.PartyFilter{}); err != nil {
			return err
		}
		invoices, err = r.ListInvoices(ctx, documents.InvoiceFilter{Kind: documents.KindSale})
		return err
	})
	if err != nil {
		return BalancesReport{}, err
	}
	open := openByParty(invoices)
	report := BalancesReport{Kind: PartyCustomer, AsOf: asOf, TotalStored: decimal.Zero}
	for _, c := range customers {
		pb := PartyBalance{ID: c.ID, Name: c.Name, Phone: c.Phone, Balance: c.Balance}
		pb.Invoices, pb.Outstanding = openInvoices(open[c.ID], c.DueDays, asOf)
		if !c.Balance.IsPositive() && len(pb.Invoices) == 0 {
			continue
		}
		report.Parties = append(report.Parties, pb)
		report.TotalStored = report.TotalStored.Add(c.Balance)
	}
	sortParties(report.Parties)
	report.Aging = ageParties(report.Parties, asOf)
	return report, nil
}

// Payables lists suppliers with a positive balance or open purchases.
func (s *Service) Payables(ctx context.Context, asOf time.Time) (BalancesReport, error) {
	var (
		suppliers []documents.Supplier
		invoices  []documents.Invoice
	)
	err := s.store.Snapshot(ctx, func(ctx context.Context, r documents.Reader) error {
		var err error
		if suppliers, err = r.ListSuppliers(ctx, documents.PartyFilter{}); err != nil {
			return err
		}
		invoices, err = r.ListInvoices(ctx, documents.InvoiceFilter{Kind: documents.KindPurchase})
		return err
	})
	if err != nil {
		return BalancesReport{}, err
	}
	open := openByParty(invoices)
	report := BalancesReport{Kind: PartySupplier, AsOf: asOf, TotalStored: decimal.Zero}
	for _, sup := range suppliers {
		pb := PartyBalance{ID: sup.ID, Name: sup.Name, Phone: sup.Phone, Balance: sup.Balance}
		pb.Invoices, pb.Outstanding = openInvoices(open[sup.ID], 0, asOf)
		if !sup.Balance.IsPositive() && len(pb.Invoices) == 0 {
			continue
		}
		report.Parties = append(report.Parties, pb)
		report.TotalStored = report.TotalStored.Add(sup.Balance)
	}
	sortParties(report.Parties)
	report.Aging = ageParties(report.Parties, asOf)
	return report, nil
}

func openByParty(invoices []documents.Invoice) map[string][]documents.Invoice {
	out := make(map[string][]documents.Invoice)
	for _, inv := range invoices {
		if !inv.HasParty() || inv.Status.Voided() || !inv.Remaining().IsPositive() {
			continue
		}
		out[*inv.PartyID] = append(out[*inv.PartyID], inv)
	}
	return out
}

// openInvoices renders a party's open documents oldest first. dueDays of
// zero means no due date.
func openInvoices(invoices []documents.Invoice, dueDays int, asOf time.Time) ([]OpenInvoice, decimal.Decimal) {
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].CreatedAt.Before(invoices[j].CreatedAt) })
	out := make([]OpenInvoice, 0, len(invoices))
	total := decimal.Zero
	for _, inv := range invoices {
		oi := OpenInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Total:         inv.TotalAmount,
			Paid:          inv.PaidAmount,
			Remaining:     shared.Round2(inv.Remaining()),
			CreatedAt:     inv.CreatedAt,
		}
		if dueDays > 0 {
			due := inv.CreatedAt.AddDate(0, 0, dueDays)
			oi.DueDate = &due
			oi.Overdue = asOf.After(due)
		}
		total = total.Add(oi.Remaining)
		out = append(out, oi)
	}
	return out, total
}

func sortParties(parties []PartyBalance) {
	sort.SliceStable(parties, func(i, j int) bool {
		return parties[i].Balance.GreaterThan(parties[j].Balance)
	})
}
