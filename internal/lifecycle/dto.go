package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// ItemInput is one requested invoice line. Total defaults to
// price × quantity − discount when omitted.
type ItemInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// CreateInvoiceInput creates a sale or a purchase. PartyID is the customer
// for sales and the supplier for purchases.
type CreateInvoiceInput struct {
	PartyID        *string         `json:"-"`
	Items          []ItemInput     `json:"items" validate:"required,min=1,dive"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	PaymentMethod  string          `json:"paymentMethod"`
	Notes          string          `json:"notes" validate:"max=1000"`
	IdempotencyKey string          `json:"-"`
}

func (in CreateInvoiceInput) validate() error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	if !shared.Round2(in.TotalAmount).IsPositive() {
		return shared.NewValidationError("totalAmount", "must be greater than zero")
	}
	if in.PaidAmount.IsNegative() {
		return shared.NewValidationError("paidAmount", "must not be negative")
	}
	if in.Discount.IsNegative() {
		return shared.NewValidationError("discount", "must not be negative")
	}
	if in.Tax.IsNegative() {
		return shared.NewValidationError("tax", "must not be negative")
	}
	for i, item := range in.Items {
		if item.Price.IsNegative() {
			return shared.NewValidationError(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
		if item.Discount.IsNegative() {
			return shared.NewValidationError(fmt.Sprintf("items[%d].discount", i), "must not be negative")
		}
	}
	return nil
}

func (in ItemInput) lineTotal() decimal.Decimal {
	if !in.Total.IsZero() {
		return shared.Round2(in.Total)
	}
	return shared.Round2(in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Sub(in.Discount))
}

// RecordPaymentInput records a standalone payment against exactly one party.
type RecordPaymentInput struct {
	CustomerID     *string         `json:"customerId"`
	SupplierID     *string         `json:"supplierId"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type" validate:"required"`
	PaymentMethod  string          `json:"paymentMethod"`
	Notes          string          `json:"notes" validate:"max=1000"`
	IdempotencyKey string          `json:"-"`
}

func (in RecordPaymentInput) validate() error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	hasCustomer := in.CustomerID != nil && *in.CustomerID != ""
	hasSupplier := in.SupplierID != nil && *in.SupplierID != ""
	if hasCustomer == hasSupplier {
		return shared.NewValidationError("party", "exactly one of customerId or supplierId is required")
	}
	if !shared.Round2(in.Amount).IsPositive() {
		return shared.NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

// ExpenseInput creates or replaces an expense.
type ExpenseInput struct {
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description" validate:"max=1000"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category" validate:"max=100"`
	Date          *time.Time      `json:"date"`
	PaymentMethod string          `json:"paymentMethod"`
	ReceiptURL    string          `json:"receiptUrl" validate:"omitempty,url"`
}

func (in ExpenseInput) validate() error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		return shared.NewValidationError("title", "is required")
	}
	if !shared.Round2(in.Amount).IsPositive() {
		return shared.NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

// CancelPolicy decides what cancelling a document does to party balances.
type CancelPolicy string

const (
	// CancelPolicySymmetric reverses the balance delta the document applied.
	CancelPolicySymmetric CancelPolicy = "symmetric"
	// CancelPolicyRetainReceivable leaves party balances untouched on
	// cancel and delete; only stock and cashbox are reversed.
	CancelPolicyRetainReceivable CancelPolicy = "retain_receivable"
)

// ParseCancelPolicy parses a configured policy name; empty means symmetric.
func ParseCancelPolicy(raw string) (CancelPolicy, error) {
	switch CancelPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CancelPolicySymmetric:
		return CancelPolicySymmetric, nil
	case CancelPolicyRetainReceivable:
		return CancelPolicyRetainReceivable, nil
	}
	return "", fmt.Errorf("lifecycle: unknown cancel policy %q", raw)
}
