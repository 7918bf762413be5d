// Package masterdata maintains the catalogue and parties the ledgers refer
// to: products, categories, customers and suppliers. Stock and balances are
// never written here; they move only through the document lifecycle.
package masterdata

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// ProductInput creates or updates a product. Stock is honoured on create as
// opening stock and ignored on update.
type ProductInput struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Barcode    string          `json:"barcode" validate:"max=64"`
	SKU        string          `json:"sku" validate:"max=64"`
	CategoryID *string         `json:"categoryId"`
	Stock      int             `json:"stock" validate:"gte=0"`
	MinStock   int             `json:"minStock" validate:"gte=0"`
	Price      decimal.Decimal `json:"price"`
	Price2     decimal.Decimal `json:"price2"`
	Price3     decimal.Decimal `json:"price3"`
	CostPrice  decimal.Decimal `json:"costPrice"`
	IsActive   *bool           `json:"isActive"`
}

func (in ProductInput) validate() error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	for field, v := range map[string]decimal.Decimal{"price": in.Price, "price2": in.Price2, "price3": in.Price3, "costPrice": in.CostPrice} {
		if v.IsNegative() {
			return shared.NewValidationError(field, "must not be negative")
		}
	}
	return nil
}

func (in ProductInput) active() bool {
	return in.IsActive == nil || *in.IsActive
}

// CategoryInput creates or updates a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CustomerInput creates or updates a customer. Balance is not accepted.
type CustomerInput struct {
	CustomerNumber string          `json:"customerNumber" validate:"max=50"`
	Name           string          `json:"name" validate:"required,max=200"`
	Phone          string          `json:"phone" validate:"max=30"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Address        string          `json:"address" validate:"max=500"`
	PriceTier      string          `json:"priceTier"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	DueDays        int             `json:"dueDays" validate:"gte=0,lte=365"`
}

func (in CustomerInput) validate() (documents.PriceTier, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return "", err
	}
	if in.CreditLimit.IsNegative() {
		return "", shared.NewValidationError("creditLimit", "must not be negative")
	}
	tier := documents.PriceTier(strings.ToUpper(strings.TrimSpace(in.PriceTier)))
	if tier == "" {
		tier = documents.PriceTier1
	}
	if !tier.Valid() {
		return "", shared.NewValidationError("priceTier", "unknown price tier")
	}
	return tier, nil
}

// SupplierInput creates or updates a supplier. Balance is not accepted.
type SupplierInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=500"`
}

// PriceMode selects how BulkAdjustPrices moves each price.
type PriceMode string

const (
	// PriceModePercent moves each price by Amount percent of itself.
	PriceModePercent PriceMode = "percent"
	// PriceModeFixed moves each price by Amount.
	PriceModeFixed PriceMode = "fixed"
	// PriceModeExchangeRate multiplies each price by Amount.
	PriceModeExchangeRate PriceMode = "exchangeRate"
)

// PriceTarget names a product price column.
type PriceTarget string

const (
	TargetPrice     PriceTarget = "price"
	TargetPrice2    PriceTarget = "price2"
	TargetPrice3    PriceTarget = "price3"
	TargetCostPrice PriceTarget = "costPrice"
)

// BulkPriceInput describes one bulk price adjustment.
type BulkPriceInput struct {
	Mode       PriceMode       `json:"mode"`
	Amount     decimal.Decimal `json:"amount"`
	Direction  string          `json:"direction"`
	Targets    []PriceTarget   `json:"targets"`
	CategoryID *string         `json:"categoryId"`
	OnlyActive *bool           `json:"onlyActive"`
}

func (in *BulkPriceInput) normalize() error {
	switch in.Mode {
	case PriceModePercent, PriceModeFixed:
		in.Direction = strings.ToLower(strings.TrimSpace(in.Direction))
		if in.Direction != "increase" && in.Direction != "decrease" {
			return shared.NewValidationError("direction", "must be increase or decrease")
		}
	case PriceModeExchangeRate:
	default:
		return shared.NewValidationError("mode", "must be percent, fixed or exchangeRate")
	}
	if in.Amount.IsNegative() {
		return shared.NewValidationError("amount", "must not be negative")
	}
	if len(in.Targets) == 0 {
		in.Targets = []PriceTarget{TargetPrice}
	}
	for _, t := range in.Targets {
		switch t {
		case TargetPrice, TargetPrice2, TargetPrice3, TargetCostPrice:
		default:
			return shared.NewValidationError("targets", "unknown price target "+string(t))
		}
	}
	if in.CategoryID != nil && strings.TrimSpace(*in.CategoryID) == "" {
		in.CategoryID = nil
	}
	return nil
}

func (in BulkPriceInput) onlyActive() bool {
	return in.OnlyActive == nil || *in.OnlyActive
}

// apply returns the adjusted price rounded to two decimals, never below zero.
func (in BulkPriceInput) apply(current decimal.Decimal) decimal.Decimal {
	var next decimal.Decimal
	switch in.Mode {
	case PriceModeExchangeRate:
		next = current.Mul(in.Amount)
	case PriceModePercent:
		delta := current.Mul(in.Amount).Div(decimal.NewFromInt(100))
		next = in.signed(current, delta)
	default:
		next = in.signed(current, in.Amount)
	}
	return shared.Round2(shared.PositiveOrZero(next))
}

func (in BulkPriceInput) signed(current, delta decimal.Decimal) decimal.Decimal {
	if in.Direction == "decrease" {
		return current.Sub(delta)
	}
	return current.Add(delta)
}

// BulkPriceResult reports how many products changed.
type BulkPriceResult struct {
	Updated int `json:"updated"`
}
