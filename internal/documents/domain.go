// Package documents holds the POS data model and the Document Store port
// through which every ledger component reads and writes it.
package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Kind distinguishes the two invoice-bearing document types.
type Kind string

const (
	// KindSale is a customer-facing sale.
	KindSale Kind = "SALE"
	// KindPurchase is a supplier purchase.
	KindPurchase Kind = "PURCHASE"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindSale || k == KindPurchase
}

// InvoicePrefix returns the invoice number prefix for the kind.
func (k Kind) InvoicePrefix() string {
	if k == KindPurchase {
		return "PUR"
	}
	return "INV"
}

// Entity returns the name used in errors and audit logs.
func (k Kind) Entity() string {
	if k == KindPurchase {
		return "purchase"
	}
	return "sale"
}

// Status is the lifecycle status of a sale or purchase.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
	StatusReturned  Status = "RETURNED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusRefunded, StatusReturned:
		return true
	}
	return false
}

// Voided reports whether the status removes the document from the ledgers.
func (s Status) Voided() bool {
	return s == StatusCancelled || s == StatusRefunded || s == StatusReturned
}

// AllowedFor reports whether the status applies to the document kind.
func (s Status) AllowedFor(kind Kind) bool {
	switch s {
	case StatusRefunded:
		return kind == KindSale
	case StatusReturned:
		return kind == KindPurchase
	}
	return s.Valid()
}

// PaymentMethod enumerates how a document or payment was settled.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCredit       PaymentMethod = "CREDIT"
	MethodCashbox      PaymentMethod = "CASHBOX"
)

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodCredit, MethodCashbox:
		return true
	}
	return false
}

// TransactionType is the direction of a cashbox entry.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known direction.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Opposite returns the reversing direction.
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionIncome {
		return TransactionExpense
	}
	return TransactionIncome
}

// PaymentType is the direction of a standalone payment.
type PaymentType string

const (
	// PaymentReceive is money coming in from the party.
	PaymentReceive PaymentType = "RECEIVE"
	// PaymentPay is money going out to the party.
	PaymentPay PaymentType = "PAY"
)

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool {
	return t == PaymentReceive || t == PaymentPay
}

// PriceTier selects which product price a customer buys at.
type PriceTier string

const (
	PriceTier1 PriceTier = "PRICE1"
	PriceTier2 PriceTier = "PRICE2"
	PriceTier3 PriceTier = "PRICE3"
)

// Valid reports whether t is a known tier.
func (t PriceTier) Valid() bool {
	return t == PriceTier1 || t == PriceTier2 || t == PriceTier3
}

// ParseKind parses a kind, accepting lowercase input.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", shared.NewValidationError("kind", fmt.Sprintf("unknown document kind %q", raw))
	}
	return k, nil
}

// ParseStatus parses a status, accepting lowercase input.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", shared.NewValidationError("status", fmt.Sprintf("unknown status %q", raw))
	}
	return s, nil
}

// ParsePaymentMethod parses a method; empty input yields the fallback.
func ParsePaymentMethod(raw string, fallback PaymentMethod) (PaymentMethod, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", shared.NewValidationError("paymentMethod", fmt.Sprintf("unknown payment method %q", raw))
	}
	return m, nil
}

// ParseTransactionType parses a cashbox direction.
func ParseTransactionType(raw string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", shared.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", raw))
	}
	return t, nil
}

// ParsePaymentType parses a payment direction.
func ParsePaymentType(raw string) (PaymentType, error) {
	t := PaymentType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", shared.NewValidationError("type", fmt.Sprintf("unknown payment type %q", raw))
	}
	return t, nil
}

// Product is a stocked catalogue item.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Barcode    string          `json:"barcode,omitempty"`
	SKU        string          `json:"sku,omitempty"`
	CategoryID *string         `json:"categoryId,omitempty"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"minStock"`
	Price      decimal.Decimal `json:"price"`
	Price2     decimal.Decimal `json:"price2"`
	Price3     decimal.Decimal `json:"price3"`
	CostPrice  decimal.Decimal `json:"costPrice"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// PriceFor returns the sale price for a customer tier.
func (p Product) PriceFor(tier PriceTier) decimal.Decimal {
	switch tier {
	case PriceTier2:
		if p.Price2.IsPositive() {
			return p.Price2
		}
	case PriceTier3:
		if p.Price3.IsPositive() {
			return p.Price3
		}
	}
	return p.Price
}

// Category groups products.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Customer is a receivable party. Balance > 0 means the customer owes us.
type Customer struct {
	ID             string          `json:"id"`
	CustomerNumber *string         `json:"customerNumber,omitempty"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	PriceTier      PriceTier       `json:"priceTier"`
	Balance        decimal.Decimal `json:"balance"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	DueDays        int             `json:"dueDays"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Supplier is a payable party. Balance > 0 means we owe the supplier.
type Supplier struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Invoice is a sale or a purchase.
type Invoice struct {
	ID            string          `json:"id"`
	Kind          Kind            `json:"kind"`
	InvoiceNumber string          `json:"invoiceNumber"`
	PartyID       *string         `json:"partyId,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	BalanceDelta  decimal.Decimal `json:"balanceDelta"`
	Status        Status          `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	Items         []Item          `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Remaining returns total minus paid; negative when overpaid.
func (inv Invoice) Remaining() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// HasParty reports whether a customer or supplier is attached.
func (inv Invoice) HasParty() bool {
	return inv.PartyID != nil && *inv.PartyID != ""
}

// Item is one product line of an invoice.
type Item struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoiceId"`
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// Payment is a standalone settlement against a customer or supplier.
type Payment struct {
	ID            string          `json:"id"`
	CustomerID    *string         `json:"customerId,omitempty"`
	SupplierID    *string         `json:"supplierId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Type          PaymentType     `json:"type"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Expense is an operating cost, optionally paid from the cashbox.
type Expense struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category,omitempty"`
	Date          time.Time       `json:"date"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	ReceiptURL    string          `json:"receiptUrl,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CashboxTransaction is an append-only cashbox log entry.
type CashboxTransaction struct {
	ID            string          `json:"id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Reference     *string         `json:"reference,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Signed returns the amount with the sign of its direction.
func (t CashboxTransaction) Signed() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
