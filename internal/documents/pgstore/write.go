package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func (t *tx) GetProductForUpdate(ctx context.Context, id string) (documents.Product, error) {
	p, err := scanProduct(t.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return documents.Product{}, notFound(err, "product", id)
	}
	return p, nil
}

func (t *tx) AdjustProductStock(ctx context.Context, id string, delta int) (int, error) {
	var stock int
	err := t.db.QueryRow(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1 RETURNING stock`, id, delta).Scan(&stock)
	if err != nil {
		return 0, notFound(err, "product", id)
	}
	return stock, nil
}

func (t *tx) InsertProduct(ctx context.Context, p documents.Product) error {
	_, err := t.db.Exec(ctx, `INSERT INTO products (id, name, barcode, sku, category_id, stock, min_stock, price, price2, price3, cost_price, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Name, p.Barcode, p.SKU, p.CategoryID, p.Stock, p.MinStock, p.Price, p.Price2, p.Price3, p.CostPrice, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return translate(err)
}

// UpdateProduct rewrites catalogue fields; stock only moves through AdjustProductStock.
func (t *tx) UpdateProduct(ctx context.Context, p documents.Product) error {
	tag, err := t.db.Exec(ctx, `UPDATE products SET name = $2, barcode = NULLIF($3, ''), sku = $4, category_id = $5, min_stock = $6,
		price = $7, price2 = $8, price3 = $9, cost_price = $10, is_active = $11, updated_at = $12 WHERE id = $1`,
		p.ID, p.Name, p.Barcode, p.SKU, p.CategoryID, p.MinStock, p.Price, p.Price2, p.Price3, p.CostPrice, p.IsActive, p.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("product", p.ID)
	}
	return nil
}

func (t *tx) DeleteProduct(ctx context.Context, id string) error {
	return t.deleteRow(ctx, `DELETE FROM products WHERE id = $1`, "product", id)
}

func (t *tx) ListProductsForUpdate(ctx context.Context, filter documents.ProductFilter) ([]documents.Product, error) {
	query, args := t.productQuery(filter)
	rows, err := t.db.Query(ctx, query+` FOR UPDATE`, args...)
	if err != nil {
		return nil, translate(err)
	}
	return collect(rows, scanProduct)
}

func (t *tx) InsertCategory(ctx context.Context, c documents.Category) error {
	_, err := t.db.Exec(ctx, `INSERT INTO categories (id, name, description, created_at) VALUES ($1, $2, $3, $4)`, c.ID, c.Name, c.Description, c.CreatedAt)
	return translate(err)
}

func (t *tx) UpdateCategory(ctx context.Context, c documents.Category) error {
	tag, err := t.db.Exec(ctx, `UPDATE categories SET name = $2, description = $3 WHERE id = $1`, c.ID, c.Name, c.Description)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("category", c.ID)
	}
	return nil
}

func (t *tx) DeleteCategory(ctx context.Context, id string) error {
	return t.deleteRow(ctx, `DELETE FROM categories WHERE id = $1`, "category", id)
}

func (t *tx) InsertCustomer(ctx context.Context, c documents.Customer) error {
	_, err := t.db.Exec(ctx, `INSERT INTO customers (id, customer_number, name, phone, email, address, price_tier, balance, credit_limit, due_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.CustomerNumber, c.Name, c.Phone, c.Email, c.Address, c.PriceTier, c.Balance, c.CreditLimit, c.DueDays, c.CreatedAt, c.UpdatedAt)
	return translate(err)
}

// UpdateCustomer leaves balance untouched; it only moves through AdjustCustomerBalance.
func (t *tx) UpdateCustomer(ctx context.Context, c documents.Customer) error {
	tag, err := t.db.Exec(ctx, `UPDATE customers SET customer_number = $2, name = $3, phone = $4, email = $5, address = $6, price_tier = $7,
		credit_limit = $8, due_days = $9, updated_at = $10 WHERE id = $1`,
		c.ID, c.CustomerNumber, c.Name, c.Phone, c.Email, c.Address, c.PriceTier, c.CreditLimit, c.DueDays, c.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("customer", c.ID)
	}
	return nil
}

func (t *tx) DeleteCustomer(ctx context.Context, id string) error {
	return t.deleteRow(ctx, `DELETE FROM customers WHERE id = $1`, "customer", id)
}

func (t *tx) AdjustCustomerBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	return t.adjustBalance(ctx, `UPDATE customers SET balance = balance + $2, updated_at = NOW() WHERE id = $1`, "customer", id, delta)
}

func (t *tx) InsertSupplier(ctx context.Context, s documents.Supplier) error {
	_, err := t.db.Exec(ctx, `INSERT INTO suppliers (id, name, phone, email, address, balance, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Name, s.Phone, s.Email, s.Address, s.Balance, s.CreatedAt, s.UpdatedAt)
	return translate(err)
}

func (t *tx) UpdateSupplier(ctx context.Context, s documents.Supplier) error {
	tag, err := t.db.Exec(ctx, `UPDATE suppliers SET name = $2, phone = $3, email = $4, address = $5, updated_at = $6 WHERE id = $1`,
		s.ID, s.Name, s.Phone, s.Email, s.Address, s.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("supplier", s.ID)
	}
	return nil
}

func (t *tx) DeleteSupplier(ctx context.Context, id string) error {
	return t.deleteRow(ctx, `DELETE FROM suppliers WHERE id = $1`, "supplier", id)
}

func (t *tx) AdjustSupplierBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	return t.adjustBalance(ctx, `UPDATE suppliers SET balance = balance + $2, updated_at = NOW() WHERE id = $1`, "supplier", id, delta)
}

func (t *tx) adjustBalance(ctx context.Context, query, entity, id string, delta decimal.Decimal) error {
	tag, err := t.db.Exec(ctx, query, id, delta)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError(entity, id)
	}
	return nil
}

func (t *tx) deleteRow(ctx context.Context, query, entity, id string) error {
	tag, err := t.db.Exec(ctx, query, id)
	if err != nil {
		return translateDelete(err, entity, id)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError(entity, id)
	}
	return nil
}

func (t *tx) MaxInvoiceSequence(ctx context.Context, kind documents.Kind) (int, error) {
	var seq int64
	err := t.db.QueryRow(ctx, `SELECT COALESCE(MAX(CAST(substring(invoice_number FROM $2) AS BIGINT)), 0) FROM invoices WHERE kind = $1`,
		kind, documents.InvoiceSequencePattern).Scan(&seq)
	if err != nil {
		return 0, translate(err)
	}
	return int(seq), nil
}

func partyColumns(inv documents.Invoice) (customerID, supplierID *string) {
	if !inv.HasParty() {
		return nil, nil
	}
	if inv.Kind == documents.KindPurchase {
		return nil, inv.PartyID
	}
	return inv.PartyID, nil
}

func (t *tx) InsertInvoice(ctx context.Context, inv documents.Invoice) error {
	customerID, supplierID := partyColumns(inv)
	_, err := t.db.Exec(ctx, `INSERT INTO invoices (id, kind, invoice_number, customer_id, supplier_id, total_amount, paid_amount, discount, tax, balance_delta, status, payment_method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		inv.ID, inv.Kind, inv.InvoiceNumber, customerID, supplierID, inv.TotalAmount, inv.PaidAmount, inv.Discount, inv.Tax, inv.BalanceDelta, inv.Status, inv.PaymentMethod, inv.Notes, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		if code, _ := db.PgErrorCode(err); code == db.CodeUniqueViolation {
			return shared.NewConflictError("invoice", "invoice_number", inv.InvoiceNumber)
		}
		return translate(err)
	}
	if len(inv.Items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range inv.Items {
		batch.Queue(`INSERT INTO invoice_items (id, invoice_id, line_no, product_id, price, quantity, discount, total) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, inv.ID, i, it.ProductID, it.Price, it.Quantity, it.Discount, it.Total)
	}
	results := t.db.SendBatch(ctx, batch)
	for range inv.Items {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return translate(err)
		}
	}
	return translate(results.Close())
}

func (t *tx) GetInvoiceForUpdate(ctx context.Context, kind documents.Kind, id string) (documents.Invoice, error) {
	return t.getInvoice(ctx, kind, id, true)
}

func (t *tx) UpdateInvoiceStatus(ctx context.Context, kind documents.Kind, id string, status documents.Status, at time.Time) error {
	tag, err := t.db.Exec(ctx, `UPDATE invoices SET status = $3, updated_at = $4 WHERE id = $1 AND kind = $2`, id, kind, status, at)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError(kind.Entity(), id)
	}
	return nil
}

// DeleteInvoice removes the header; items go with it through ON DELETE CASCADE.
func (t *tx) DeleteInvoice(ctx context.Context, kind documents.Kind, id string) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND kind = $2`, id, kind)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError(kind.Entity(), id)
	}
	return nil
}

func (t *tx) InsertPayment(ctx context.Context, p documents.Payment) error {
	_, err := t.db.Exec(ctx, `INSERT INTO payments (id, customer_id, supplier_id, amount, type, payment_method, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.CustomerID, p.SupplierID, p.Amount, p.Type, p.PaymentMethod, p.Notes, p.CreatedAt)
	return translate(err)
}

func (t *tx) InsertExpense(ctx context.Context, e documents.Expense) error {
	_, err := t.db.Exec(ctx, `INSERT INTO expenses (id, title, description, amount, category, date, payment_method, receipt_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Title, e.Description, e.Amount, e.Category, e.Date, e.PaymentMethod, e.ReceiptURL, e.CreatedAt, e.UpdatedAt)
	return translate(err)
}

func (t *tx) GetExpenseForUpdate(ctx context.Context, id string) (documents.Expense, error) {
	e, err := scanExpense(t.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return documents.Expense{}, notFound(err, "expense", id)
	}
	return e, nil
}

func (t *tx) UpdateExpense(ctx context.Context, e documents.Expense) error {
	tag, err := t.db.Exec(ctx, `UPDATE expenses SET title = $2, description = $3, amount = $4, category = $5, date = $6, payment_method = $7, receipt_url = $8, updated_at = $9 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Amount, e.Category, e.Date, e.PaymentMethod, e.ReceiptURL, e.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("expense", e.ID)
	}
	return nil
}

func (t *tx) DeleteExpense(ctx context.Context, id string) error {
	return t.deleteRow(ctx, `DELETE FROM expenses WHERE id = $1`, "expense", id)
}

// LockCashbox claims the guard row. Two units claiming it concurrently are
// serialised, and under RepeatableRead the later one fails with a
// serialization error and is retried against a fresh snapshot.
func (t *tx) LockCashbox(ctx context.Context) error {
	_, err := t.db.Exec(ctx, `UPDATE cashbox_guard SET version = version + 1 WHERE id = 1`)
	return translate(err)
}

func (t *tx) InsertCashboxTransaction(ctx context.Context, entry documents.CashboxTransaction) error {
	_, err := t.db.Exec(ctx, `INSERT INTO cashbox_transactions (id, type, amount, description, reference, payment_method, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Type, entry.Amount, entry.Description, entry.Reference, entry.PaymentMethod, entry.CreatedAt)
	return translate(err)
}
