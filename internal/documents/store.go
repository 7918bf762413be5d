package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *string
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}

// PartyFilter narrows customer and supplier listings.
type PartyFilter struct {
	Search          string
	PositiveBalance bool
	Limit           int
	Offset          int
}

// InvoiceFilter narrows sale and purchase listings.
type InvoiceFilter struct {
	Kind          Kind
	PartyID       *string
	Status        Status
	PaymentMethod PaymentMethod
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	CustomerID *string
	SupplierID *string
	// PartyKind restricts to customer or supplier payments when set.
	PartyKind Kind
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ExpenseFilter narrows expense listings.
type ExpenseFilter struct {
	Category      string
	PaymentMethod PaymentMethod
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// Reader exposes read access to every document type.
type Reader interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context, filter PartyFilter) ([]Customer, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	ListSuppliers(ctx context.Context, filter PartyFilter) ([]Supplier, error)
	GetInvoice(ctx context.Context, kind Kind, id string) (Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	GetExpense(ctx context.Context, id string) (Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]Expense, error)
	CashboxBalance(ctx context.Context) (decimal.Decimal, error)
	ListCashboxTransactions(ctx context.Context, limit int) ([]CashboxTransaction, error)
}

// Snapshotter serves several reads from one consistent point in time.
type Snapshotter interface {
	Reader
	// Snapshot runs fn against a read-only view. Writes committed while fn
	// runs are not visible through the view.
	Snapshot(ctx context.Context, fn func(context.Context, Reader) error) error
}

// Tx is the write surface available inside one atomic unit of work. Every
// balance mutation is an increment applied in place by the store.
type Tx interface {
	Reader

	GetProductForUpdate(ctx context.Context, id string) (Product, error)
	AdjustProductStock(ctx context.Context, id string, delta int) (int, error)
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProductsForUpdate(ctx context.Context, filter ProductFilter) ([]Product, error)

	InsertCategory(ctx context.Context, c Category) error
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id string) error

	InsertCustomer(ctx context.Context, c Customer) error
	UpdateCustomer(ctx context.Context, c Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	AdjustCustomerBalance(ctx context.Context, id string, delta decimal.Decimal) error

	InsertSupplier(ctx context.Context, s Supplier) error
	UpdateSupplier(ctx context.Context, s Supplier) error
	DeleteSupplier(ctx context.Context, id string) error
	AdjustSupplierBalance(ctx context.Context, id string, delta decimal.Decimal) error

	MaxInvoiceSequence(ctx context.Context, kind Kind) (int, error)
	InsertInvoice(ctx context.Context, inv Invoice) error
	GetInvoiceForUpdate(ctx context.Context, kind Kind, id string) (Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, kind Kind, id string, status Status, at time.Time) error
	DeleteInvoice(ctx context.Context, kind Kind, id string) error

	InsertPayment(ctx context.Context, p Payment) error

	InsertExpense(ctx context.Context, e Expense) error
	GetExpenseForUpdate(ctx context.Context, id string) (Expense, error)
	UpdateExpense(ctx context.Context, e Expense) error
	DeleteExpense(ctx context.Context, id string) error

	LockCashbox(ctx context.Context) error
	InsertCashboxTransaction(ctx context.Context, t CashboxTransaction) error
}

// Store is the Document Store: reads plus atomic multi-record units of work.
// fn's writes are committed only when it returns nil.
type Store interface {
	Snapshotter
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}
