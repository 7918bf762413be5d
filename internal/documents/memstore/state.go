package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type state struct {
	products   map[string]documents.Product
	categories map[string]documents.Category
	customers  map[string]documents.Customer
	suppliers  map[string]documents.Supplier
	invoices   map[string]documents.Invoice
	payments   []documents.Payment
	expenses   map[string]documents.Expense
	cashbox    []documents.CashboxTransaction
}

func newState() *state {
	return &state{
		products:   make(map[string]documents.Product),
		categories: make(map[string]documents.Category),
		customers:  make(map[string]documents.Customer),
		suppliers:  make(map[string]documents.Supplier),
		invoices:   make(map[string]documents.Invoice),
		expenses:   make(map[string]documents.Expense),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.categories {
		out.categories[k] = v
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.suppliers {
		out.suppliers[k] = v
	}
	for k, v := range s.invoices {
		out.invoices[k] = copyInvoice(v)
	}
	for k, v := range s.expenses {
		out.expenses[k] = v
	}
	out.payments = append([]documents.Payment(nil), s.payments...)
	out.cashbox = append([]documents.CashboxTransaction(nil), s.cashbox...)
	return out
}

func copyInvoice(inv documents.Invoice) documents.Invoice {
	inv.Items = append([]documents.Item(nil), inv.Items...)
	return inv
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func inRange(at time.Time, from, to *time.Time) bool {
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && at.After(*to) {
		return false
	}
	return true
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func (s *state) GetProduct(ctx context.Context, id string) (documents.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return documents.Product{}, shared.NewNotFoundError("product", id)
	}
	return p, nil
}

func (s *state) ListProducts(ctx context.Context, filter documents.ProductFilter) ([]documents.Product, error) {
	out := make([]documents.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if !matches(filter.Search, p.Name, p.Barcode, p.SKU) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *state) GetCategory(ctx context.Context, id string) (documents.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return documents.Category{}, shared.NewNotFoundError("category", id)
	}
	return c, nil
}

func (s *state) ListCategories(ctx context.Context) ([]documents.Category, error) {
	out := make([]documents.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *state) GetCustomer(ctx context.Context, id string) (documents.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return documents.Customer{}, shared.NewNotFoundError("customer", id)
	}
	return c, nil
}

func (s *state) ListCustomers(ctx context.Context, filter documents.PartyFilter) ([]documents.Customer, error) {
	out := make([]documents.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		number := ""
		if c.CustomerNumber != nil {
			number = *c.CustomerNumber
		}
		if !matches(filter.Search, c.Name, c.Phone, number) {
			continue
		}
		if filter.PositiveBalance && !c.Balance.IsPositive() {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *state) GetSupplier(ctx context.Context, id string) (documents.Supplier, error) {
	sup, ok := s.suppliers[id]
	if !ok {
		return documents.Supplier{}, shared.NewNotFoundError("supplier", id)
	}
	return sup, nil
}

func (s *state) ListSuppliers(ctx context.Context, filter documents.PartyFilter) ([]documents.Supplier, error) {
	out := make([]documents.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		if !matches(filter.Search, sup.Name, sup.Phone) {
			continue
		}
		if filter.PositiveBalance && !sup.Balance.IsPositive() {
			continue
		}
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *state) GetInvoice(ctx context.Context, kind documents.Kind, id string) (documents.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok || inv.Kind != kind {
		return documents.Invoice{}, shared.NewNotFoundError(kind.Entity(), id)
	}
	return copyInvoice(inv), nil
}

func (s *state) ListInvoices(ctx context.Context, filter documents.InvoiceFilter) ([]documents.Invoice, error) {
	out := make([]documents.Invoice, 0)
	for _, inv := range s.invoices {
		if filter.Kind != "" && inv.Kind != filter.Kind {
			continue
		}
		if filter.PartyID != nil && (inv.PartyID == nil || *inv.PartyID != *filter.PartyID) {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.PaymentMethod != "" && inv.PaymentMethod != filter.PaymentMethod {
			continue
		}
		if !inRange(inv.CreatedAt, filter.From, filter.To) {
			continue
		}
		out = append(out, copyInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].InvoiceNumber > out[j].InvoiceNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *state) ListPayments(ctx context.Context, filter documents.PaymentFilter) ([]documents.Payment, error) {
	out := make([]documents.Payment, 0, len(s.payments))
	for i := len(s.payments) - 1; i >= 0; i-- {
		p := s.payments[i]
		if filter.CustomerID != nil && (p.CustomerID == nil || *p.CustomerID != *filter.CustomerID) {
			continue
		}
		if filter.SupplierID != nil && (p.SupplierID == nil || *p.SupplierID != *filter.SupplierID) {
			continue
		}
		if filter.PartyKind == documents.KindSale && p.CustomerID == nil {
			continue
		}
		if filter.PartyKind == documents.KindPurchase && p.SupplierID == nil {
			continue
		}
		if !inRange(p.CreatedAt, filter.From, filter.To) {
			continue
		}
		out = append(out, p)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *state) GetExpense(ctx context.Context, id string) (documents.Expense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return documents.Expense{}, shared.NewNotFoundError("expense", id)
	}
	return e, nil
}

func (s *state) ListExpenses(ctx context.Context, filter documents.ExpenseFilter) ([]documents.Expense, error) {
	out := make([]documents.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.PaymentMethod != "" && e.PaymentMethod != filter.PaymentMethod {
			continue
		}
		if !inRange(e.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (s *state) CashboxBalance(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range s.cashbox {
		total = total.Add(t.Signed())
	}
	return total, nil
}

func (s *state) ListCashboxTransactions(ctx context.Context, limit int) ([]documents.CashboxTransaction, error) {
	out := make([]documents.CashboxTransaction, 0, len(s.cashbox))
	for i := len(s.cashbox) - 1; i >= 0; i-- {
		out = append(out, s.cashbox[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
