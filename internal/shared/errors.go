package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation marks malformed input or a business-rule precondition failure.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation or a lost concurrent race.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock indicates a sale line exceeds on-hand stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientCashbox indicates a cashbox expense exceeds the balance.
	ErrInsufficientCashbox = errors.New("insufficient cashbox balance")
	// ErrInvalidStatus indicates a document status transition that is not allowed.
	ErrInvalidStatus = errors.New("invalid status transition")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError reports a duplicate unique value or a serialization failure.
type ConflictError struct {
	Entity string
	Field  string
	Value  string
}

// NewConflictError builds a ConflictError.
func NewConflictError(entity, field, value string) error {
	return &ConflictError{Entity: entity, Field: field, Value: value}
}

func (e *ConflictError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s conflict on %s", e.Entity, e.Field)
	}
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// Is matches ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Serialization conflicts are raised when the store aborts a unit of work
// because a concurrent writer won.
const (
	ConflictEntityTransaction  = "transaction"
	ConflictFieldSerialization = "serialization"
)

// ErrSerialization is returned by stores when a unit of work must be retried.
var ErrSerialization = &ConflictError{Entity: ConflictEntityTransaction, Field: ConflictFieldSerialization}

// InsufficientStockError carries the failing product line.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

// Is matches ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InsufficientCashboxError carries the balance observed when the expense was rejected.
type InsufficientCashboxError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientCashboxError) Error() string {
	return fmt.Sprintf("insufficient cashbox balance: available %s, requested %s", e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

// Is matches ErrInsufficientCashbox.
func (e *InsufficientCashboxError) Is(target error) bool {
	return target == ErrInsufficientCashbox
}

// StatusTransitionError reports a rejected document status change.
type StatusTransitionError struct {
	From string
	To   string
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Is matches ErrInvalidStatus and ErrValidation.
func (e *StatusTransitionError) Is(target error) bool {
	return target == ErrInvalidStatus || target == ErrValidation
}

// IsRetryable reports whether a unit of work failed on a conflict that a fresh attempt may resolve.
func IsRetryable(err error) bool {
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		return false
	}
	if conflict.Entity == ConflictEntityTransaction {
		return true
	}
	return conflict.Field == "invoice_number"
}
