package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

const (
	productColumns  = `id::text, name, COALESCE(barcode, ''), sku, category_id::text, stock, min_stock, price, price2, price3, cost_price, is_active, created_at, updated_at`
	categoryColumns = `id::text, name, description, created_at`
	customerColumns = `id::text, customer_number, name, phone, email, address, price_tier, balance, credit_limit, due_days, created_at, updated_at`
	supplierColumns = `id::text, name, phone, email, address, balance, created_at, updated_at`
	invoiceColumns  = `id::text, kind, invoice_number, COALESCE(customer_id, supplier_id)::text, total_amount, paid_amount, discount, tax, balance_delta, status, payment_method, notes, created_at, updated_at`
	itemColumns     = `id::text, invoice_id::text, product_id::text, price, quantity, discount, total`
	paymentColumns  = `id::text, customer_id::text, supplier_id::text, amount, type, payment_method, notes, created_at`
	expenseColumns  = `id::text, title, description, amount, category, date, payment_method, receipt_url, created_at, updated_at`
	cashboxColumns  = `id::text, type, amount, description, reference, payment_method, created_at`
)

func scanProduct(row pgx.Row) (documents.Product, error) {
	var p documents.Product
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.SKU, &p.CategoryID, &p.Stock, &p.MinStock, &p.Price, &p.Price2, &p.Price3, &p.CostPrice, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanCategory(row pgx.Row) (documents.Category, error) {
	var c documents.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	return c, err
}

func scanCustomer(row pgx.Row) (documents.Customer, error) {
	var c documents.Customer
	err := row.Scan(&c.ID, &c.CustomerNumber, &c.Name, &c.Phone, &c.Email, &c.Address, &c.PriceTier, &c.Balance, &c.CreditLimit, &c.DueDays, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanSupplier(row pgx.Row) (documents.Supplier, error) {
	var s documents.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.Balance, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanInvoice(row pgx.Row) (documents.Invoice, error) {
	var inv documents.Invoice
	err := row.Scan(&inv.ID, &inv.Kind, &inv.InvoiceNumber, &inv.PartyID, &inv.TotalAmount, &inv.PaidAmount, &inv.Discount, &inv.Tax, &inv.BalanceDelta, &inv.Status, &inv.PaymentMethod, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func scanPayment(row pgx.Row) (documents.Payment, error) {
	var p documents.Payment
	err := row.Scan(&p.ID, &p.CustomerID, &p.SupplierID, &p.Amount, &p.Type, &p.PaymentMethod, &p.Notes, &p.CreatedAt)
	return p, err
}

func scanExpense(row pgx.Row) (documents.Expense, error) {
	var e documents.Expense
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Amount, &e.Category, &e.Date, &e.PaymentMethod, &e.ReceiptURL, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func scanCashbox(row pgx.Row) (documents.CashboxTransaction, error) {
	var t documents.CashboxTransaction
	err := row.Scan(&t.ID, &t.Type, &t.Amount, &t.Description, &t.Reference, &t.PaymentMethod, &t.CreatedAt)
	return t, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (q queries) GetProduct(ctx context.Context, id string) (documents.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return documents.Product{}, notFound(err, "product", id)
	}
	return p, nil
}

func (q queries) productQuery(filter documents.ProductFilter) (string, []any) {
	var c conditions
	if filter.CategoryID != nil {
		c.add("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOnly {
		c.add("is_active = ?", true)
	}
	c.addSearch(filter.Search, "name", "barcode", "sku")
	query := `SELECT ` + productColumns + ` FROM products` + c.where() + ` ORDER BY name, id` + c.paginate(filter.Limit, filter.Offset)
	return query, c.args
}

func (q queries) ListProducts(ctx context.Context, filter documents.ProductFilter) ([]documents.Product, error) {
	query, args := q.productQuery(filter)
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanProduct)
}

func (q queries) GetCategory(ctx context.Context, id string) (documents.Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return documents.Category{}, notFound(err, "category", id)
	}
	return c, nil
}

func (q queries) ListCategories(ctx context.Context) ([]documents.Category, error) {
	rows, err := q.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanCategory)
}

func (q queries) GetCustomer(ctx context.Context, id string) (documents.Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		return documents.Customer{}, notFound(err, "customer", id)
	}
	return c, nil
}

func (q queries) ListCustomers(ctx context.Context, filter documents.PartyFilter) ([]documents.Customer, error) {
	var c conditions
	c.addSearch(filter.Search, "name", "phone", "customer_number")
	if filter.PositiveBalance {
		c.add("balance > ?", 0)
	}
	query := `SELECT ` + customerColumns + ` FROM customers` + c.where() + ` ORDER BY name` + c.paginate(filter.Limit, filter.Offset)
	rows, err := q.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanCustomer)
}

func (q queries) GetSupplier(ctx context.Context, id string) (documents.Supplier, error) {
	s, err := scanSupplier(q.db.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		return documents.Supplier{}, notFound(err, "supplier", id)
	}
	return s, nil
}

func (q queries) ListSuppliers(ctx context.Context, filter documents.PartyFilter) ([]documents.Supplier, error) {
	var c conditions
	c.addSearch(filter.Search, "name", "phone")
	if filter.PositiveBalance {
		c.add("balance > ?", 0)
	}
	query := `SELECT ` + supplierColumns + ` FROM suppliers` + c.where() + ` ORDER BY name` + c.paginate(filter.Limit, filter.Offset)
	rows, err := q.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanSupplier)
}

func (q queries) loadItems(ctx context.Context, invoiceID string) ([]documents.Item, error) {
	rows, err := q.db.Query(ctx, `SELECT `+itemColumns+` FROM invoice_items WHERE invoice_id = $1 ORDER BY line_no`, invoiceID)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, func(row pgx.Row) (documents.Item, error) {
		var it documents.Item
		err := row.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Price, &it.Quantity, &it.Discount, &it.Total)
		return it, err
	})
}

func (q queries) getInvoice(ctx context.Context, kind documents.Kind, id string, lock bool) (documents.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND kind = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvoice(q.db.QueryRow(ctx, query, id, kind))
	if err != nil {
		return documents.Invoice{}, notFound(err, kind.Entity(), id)
	}
	inv.Items, err = q.loadItems(ctx, id)
	if err != nil {
		return documents.Invoice{}, err
	}
	return inv, nil
}

func (q queries) GetInvoice(ctx context.Context, kind documents.Kind, id string) (documents.Invoice, error) {
	return q.getInvoice(ctx, kind, id, false)
}

// ListInvoices returns headers only; items are loaded by GetInvoice.
func (q queries) ListInvoices(ctx context.Context, filter documents.InvoiceFilter) ([]documents.Invoice, error) {
	var c conditions
	if filter.Kind != "" {
		c.add("kind = ?", filter.Kind)
	}
	if filter.PartyID != nil {
		c.add("COALESCE(customer_id, supplier_id) = ?", *filter.PartyID)
	}
	if filter.Status != "" {
		c.add("status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		c.add("payment_method = ?", filter.PaymentMethod)
	}
	if filter.From != nil {
		c.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		c.add("created_at <= ?", *filter.To)
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + c.where() + ` ORDER BY created_at DESC, invoice_number DESC` + c.paginate(filter.Limit, filter.Offset)
	rows, err := q.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanInvoice)
}

func (q queries) ListPayments(ctx context.Context, filter documents.PaymentFilter) ([]documents.Payment, error) {
	var c conditions
	if filter.CustomerID != nil {
		c.add("customer_id = ?", *filter.CustomerID)
	}
	if filter.SupplierID != nil {
		c.add("supplier_id = ?", *filter.SupplierID)
	}
	switch filter.PartyKind {
	case documents.KindSale:
		c.parts = append(c.parts, "customer_id IS NOT NULL")
	case documents.KindPurchase:
		c.parts = append(c.parts, "supplier_id IS NOT NULL")
	}
	if filter.From != nil {
		c.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		c.add("created_at <= ?", *filter.To)
	}
	query := `SELECT ` + paymentColumns + ` FROM payments` + c.where() + ` ORDER BY created_at DESC` + c.paginate(filter.Limit, filter.Offset)
	rows, err := q.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanPayment)
}

func (q queries) GetExpense(ctx context.Context, id string) (documents.Expense, error) {
	e, err := scanExpense(q.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if err != nil {
		return documents.Expense{}, notFound(err, "expense", id)
	}
	return e, nil
}

func (q queries) ListExpenses(ctx context.Context, filter documents.ExpenseFilter) ([]documents.Expense, error) {
	var c conditions
	if filter.Category != "" {
		c.add("category = ?", filter.Category)
	}
	if filter.PaymentMethod != "" {
		c.add("payment_method = ?", filter.PaymentMethod)
	}
	if filter.From != nil {
		c.add("date >= ?", *filter.From)
	}
	if filter.To != nil {
		c.add("date <= ?", *filter.To)
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses` + c.where() + ` ORDER BY date DESC, id` + c.paginate(filter.Limit, filter.Offset)
	rows, err := q.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanExpense)
}

// CashboxBalance aggregates the whole log, never a listing window.
func (q queries) CashboxBalance(ctx context.Context) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := q.db.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN type = 'INCOME' THEN amount ELSE -amount END), 0) FROM cashbox_transactions`).Scan(&balance)
	if err != nil {
		return decimal.Zero, translate(err)
	}
	return balance, nil
}

func (q queries) ListCashboxTransactions(ctx context.Context, limit int) ([]documents.CashboxTransaction, error) {
	var c conditions
	query := `SELECT ` + cashboxColumns + ` FROM cashbox_transactions ORDER BY created_at DESC, id DESC` + c.paginate(limit, 0)
	rows, err := q.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanCashbox)
}
