// Package memstore is an in-process Document Store. Units of work run one at
// a time against a private copy of the data that replaces the live copy only
// on success, so a failed unit leaves nothing behind.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Store implements documents.Store in memory.
type Store struct {
	mu    sync.RWMutex
	state *state
}

var _ documents.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// WithTx runs fn against a snapshot and commits it when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, documents.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, &tx{state: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Snapshot hands fn the last committed state. Committed states are never
// mutated, so the view stays fixed while later units commit.
func (s *Store) Snapshot(ctx context.Context, fn func(context.Context, documents.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	view := s.state
	s.mu.RUnlock()
	return fn(ctx, view)
}

func (s *Store) GetProduct(ctx context.Context, id string) (documents.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GetProduct(ctx, id)
}

func (s *Store) ListProducts(ctx context.Context, filter documents.ProductFilter) ([]documents.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListProducts(ctx, filter)
}

func (s *Store) GetCategory(ctx context.Context, id string) (documents.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GetCategory(ctx, id)
}

func (s *Store) ListCategories(ctx context.Context) ([]documents.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListCategories(ctx)
}

func (s *Store) GetCustomer(ctx context.Context, id string) (documents.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GetCustomer(ctx, id)
}

func (s *Store) ListCustomers(ctx context.Context, filter documents.PartyFilter) ([]documents.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListCustomers(ctx, filter)
}

func (s *Store) GetSupplier(ctx context.Context, id string) (documents.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GetSupplier(ctx, id)
}

func (s *Store) ListSuppliers(ctx context.Context, filter documents.PartyFilter) ([]documents.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListSuppliers(ctx, filter)
}

func (s *Store) GetInvoice(ctx context.Context, kind documents.Kind, id string) (documents.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GetInvoice(ctx, kind, id)
}

func (s *Store) ListInvoices(ctx context.Context, filter documents.InvoiceFilter) ([]documents.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListInvoices(ctx, filter)
}

func (s *Store) ListPayments(ctx context.Context, filter documents.PaymentFilter) ([]documents.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListPayments(ctx, filter)
}

func (s *Store) GetExpense(ctx context.Context, id string) (documents.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GetExpense(ctx, id)
}

func (s *Store) ListExpenses(ctx context.Context, filter documents.ExpenseFilter) ([]documents.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListExpenses(ctx, filter)
}

func (s *Store) CashboxBalance(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CashboxBalance(ctx)
}

func (s *Store) ListCashboxTransactions(ctx context.Context, limit int) ([]documents.CashboxTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListCashboxTransactions(ctx, limit)
}

type tx struct {
	*state
}

func (t *tx) GetProductForUpdate(ctx context.Context, id string) (documents.Product, error) {
	return t.GetProduct(ctx, id)
}

func (t *tx) AdjustProductStock(ctx context.Context, id string, delta int) (int, error) {
	p, ok := t.products[id]
	if !ok {
		return 0, shared.NewNotFoundError("product", id)
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	t.products[id] = p
	return p.Stock, nil
}

func (t *tx) checkProductUnique(p documents.Product) error {
	if p.Barcode == "" {
		return nil
	}
	for _, other := range t.products {
		if other.ID != p.ID && other.Barcode == p.Barcode {
			return shared.NewConflictError("product", "barcode", p.Barcode)
		}
	}
	return nil
}

func (t *tx) InsertProduct(ctx context.Context, p documents.Product) error {
	if _, exists := t.products[p.ID]; exists {
		return shared.NewConflictError("product", "id", p.ID)
	}
	if err := t.checkProductUnique(p); err != nil {
		return err
	}
	t.products[p.ID] = p
	return nil
}

func (t *tx) UpdateProduct(ctx context.Context, p documents.Product) error {
	if _, exists := t.products[p.ID]; !exists {
		return shared.NewNotFoundError("product", p.ID)
	}
	if err := t.checkProductUnique(p); err != nil {
		return err
	}
	t.products[p.ID] = p
	return nil
}

func (t *tx) DeleteProduct(ctx context.Context, id string) error {
	if _, exists := t.products[id]; !exists {
		return shared.NewNotFoundError("product", id)
	}
	for _, inv := range t.invoices {
		for _, item := range inv.Items {
			if item.ProductID == id {
				return shared.NewConflictError("product", "references", id)
			}
		}
	}
	delete(t.products, id)
	return nil
}

func (t *tx) ListProductsForUpdate(ctx context.Context, filter documents.ProductFilter) ([]documents.Product, error) {
	return t.ListProducts(ctx, filter)
}

func (t *tx) InsertCategory(ctx context.Context, c documents.Category) error {
	for _, other := range t.categories {
		if other.ID == c.ID {
			return shared.NewConflictError("category", "id", c.ID)
		}
		if other.Name == c.Name {
			return shared.NewConflictError("category", "name", c.Name)
		}
	}
	t.categories[c.ID] = c
	return nil
}

func (t *tx) UpdateCategory(ctx context.Context, c documents.Category) error {
	if _, exists := t.categories[c.ID]; !exists {
		return shared.NewNotFoundError("category", c.ID)
	}
	for _, other := range t.categories {
		if other.ID != c.ID && other.Name == c.Name {
			return shared.NewConflictError("category", "name", c.Name)
		}
	}
	t.categories[c.ID] = c
	return nil
}

func (t *tx) DeleteCategory(ctx context.Context, id string) error {
	if _, exists := t.categories[id]; !exists {
		return shared.NewNotFoundError("category", id)
	}
	for _, p := range t.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			return shared.NewConflictError("category", "references", id)
		}
	}
	delete(t.categories, id)
	return nil
}

func (t *tx) checkCustomerUnique(c documents.Customer) error {
	for _, other := range t.customers {
		if other.ID == c.ID {
			continue
		}
		if other.Name == c.Name {
			return shared.NewConflictError("customer", "name", c.Name)
		}
		if c.CustomerNumber != nil && other.CustomerNumber != nil && *other.CustomerNumber == *c.CustomerNumber {
			return shared.NewConflictError("customer", "customer_number", *c.CustomerNumber)
		}
	}
	return nil
}

func (t *tx) InsertCustomer(ctx context.Context, c documents.Customer) error {
	if _, exists := t.customers[c.ID]; exists {
		return shared.NewConflictError("customer", "id", c.ID)
	}
	if err := t.checkCustomerUnique(c); err != nil {
		return err
	}
	t.customers[c.ID] = c
	return nil
}

func (t *tx) UpdateCustomer(ctx context.Context, c documents.Customer) error {
	current, exists := t.customers[c.ID]
	if !exists {
		return shared.NewNotFoundError("customer", c.ID)
	}
	if err := t.checkCustomerUnique(c); err != nil {
		return err
	}
	c.Balance = current.Balance
	t.customers[c.ID] = c
	return nil
}

func (t *tx) DeleteCustomer(ctx context.Context, id string) error {
	if _, exists := t.customers[id]; !exists {
		return shared.NewNotFoundError("customer", id)
	}
	for _, inv := range t.invoices {
		if inv.Kind == documents.KindSale && inv.PartyID != nil && *inv.PartyID == id {
			return shared.NewConflictError("customer", "references", id)
		}
	}
	for _, p := range t.payments {
		if p.CustomerID != nil && *p.CustomerID == id {
			return shared.NewConflictError("customer", "references", id)
		}
	}
	delete(t.customers, id)
	return nil
}

func (t *tx) AdjustCustomerBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	c, ok := t.customers[id]
	if !ok {
		return shared.NewNotFoundError("customer", id)
	}
	c.Balance = c.Balance.Add(delta)
	c.UpdatedAt = time.Now().UTC()
	t.customers[id] = c
	return nil
}

func (t *tx) InsertSupplier(ctx context.Context, sup documents.Supplier) error {
	for _, other := range t.suppliers {
		if other.ID == sup.ID {
			return shared.NewConflictError("supplier", "id", sup.ID)
		}
		if other.Name == sup.Name {
			return shared.NewConflictError("supplier", "name", sup.Name)
		}
	}
	t.suppliers[sup.ID] = sup
	return nil
}

func (t *tx) UpdateSupplier(ctx context.Context, sup documents.Supplier) error {
	current, exists := t.suppliers[sup.ID]
	if !exists {
		return shared.NewNotFoundError("supplier", sup.ID)
	}
	for _, other := range t.suppliers {
		if other.ID != sup.ID && other.Name == sup.Name {
			return shared.NewConflictError("supplier", "name", sup.Name)
		}
	}
	sup.Balance = current.Balance
	t.suppliers[sup.ID] = sup
	return nil
}

func (t *tx) DeleteSupplier(ctx context.Context, id string) error {
	if _, exists := t.suppliers[id]; !exists {
		return shared.NewNotFoundError("supplier", id)
	}
	for _, inv := range t.invoices {
		if inv.Kind == documents.KindPurchase && inv.PartyID != nil && *inv.PartyID == id {
			return shared.NewConflictError("supplier", "references", id)
		}
	}
	for _, p := range t.payments {
		if p.SupplierID != nil && *p.SupplierID == id {
			return shared.NewConflictError("supplier", "references", id)
		}
	}
	delete(t.suppliers, id)
	return nil
}

func (t *tx) AdjustSupplierBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	sup, ok := t.suppliers[id]
	if !ok {
		return shared.NewNotFoundError("supplier", id)
	}
	sup.Balance = sup.Balance.Add(delta)
	sup.UpdatedAt = time.Now().UTC()
	t.suppliers[id] = sup
	return nil
}

func (t *tx) MaxInvoiceSequence(ctx context.Context, kind documents.Kind) (int, error) {
	maxSeq := 0
	for _, inv := range t.invoices {
		if inv.Kind != kind {
			continue
		}
		if seq, ok := documents.ParseInvoiceSequence(inv.InvoiceNumber); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

func (t *tx) InsertInvoice(ctx context.Context, inv documents.Invoice) error {
	for _, other := range t.invoices {
		if other.ID == inv.ID {
			return shared.NewConflictError(inv.Kind.Entity(), "id", inv.ID)
		}
		if other.Kind == inv.Kind && other.InvoiceNumber == inv.InvoiceNumber {
			return shared.NewConflictError("invoice", "invoice_number", inv.InvoiceNumber)
		}
	}
	t.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (t *tx) GetInvoiceForUpdate(ctx context.Context, kind documents.Kind, id string) (documents.Invoice, error) {
	return t.GetInvoice(ctx, kind, id)
}

func (t *tx) UpdateInvoiceStatus(ctx context.Context, kind documents.Kind, id string, status documents.Status, at time.Time) error {
	inv, ok := t.invoices[id]
	if !ok || inv.Kind != kind {
		return shared.NewNotFoundError(kind.Entity(), id)
	}
	inv.Status = status
	inv.UpdatedAt = at
	t.invoices[id] = inv
	return nil
}

func (t *tx) DeleteInvoice(ctx context.Context, kind documents.Kind, id string) error {
	inv, ok := t.invoices[id]
	if !ok || inv.Kind != kind {
		return shared.NewNotFoundError(kind.Entity(), id)
	}
	delete(t.invoices, id)
	return nil
}

func (t *tx) InsertPayment(ctx context.Context, p documents.Payment) error {
	t.payments = append(t.payments, p)
	return nil
}

func (t *tx) InsertExpense(ctx context.Context, e documents.Expense) error {
	if _, exists := t.expenses[e.ID]; exists {
		return shared.NewConflictError("expense", "id", e.ID)
	}
	t.expenses[e.ID] = e
	return nil
}

func (t *tx) GetExpenseForUpdate(ctx context.Context, id string) (documents.Expense, error) {
	return t.GetExpense(ctx, id)
}

func (t *tx) UpdateExpense(ctx context.Context, e documents.Expense) error {
	if _, exists := t.expenses[e.ID]; !exists {
		return shared.NewNotFoundError("expense", e.ID)
	}
	t.expenses[e.ID] = e
	return nil
}

func (t *tx) DeleteExpense(ctx context.Context, id string) error {
	if _, exists := t.expenses[id]; !exists {
		return shared.NewNotFoundError("expense", id)
	}
	delete(t.expenses, id)
	return nil
}

// LockCashbox is a no-op: units of work are already serialised.
func (t *tx) LockCashbox(ctx context.Context) error {
	return nil
}

func (t *tx) InsertCashboxTransaction(ctx context.Context, entry documents.CashboxTransaction) error {
	t.cashbox = append(t.cashbox, entry)
	return nil
}
