package errors

import (
	"errors"
	"fmt"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrMissingOrderID       = errors.New("order id is required")
	ErrEmptyItems           = errors.New("order has no items")
	ErrInvalidAddress       = errors.New("invalid shipping address")
	ErrInvalidItem          = errors.New("invalid order item")
	ErrUnsupportedSupplier  = errors.New("unsupported supplier")
	ErrUnknownSupplierOrder = errors.New("supplier order does not belong to order")
	ErrCredentialsMissing   = errors.New("credentials not configured")
	ErrAlreadyQueued        = errors.New("order already in queue")
	ErrQueueState           = errors.New("queue item does not allow this action in its current status")
)

// ValidationError reports the first invalid request field.
// Err defaults to ErrInvalidAddress.
type ValidationError struct {
	Field string
	Rule  string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%v: %s failed %s", e.Unwrap(), e.Field, e.Rule)
}

func (e ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidAddress
}

// SupplierError is a failure reported while talking to a supplier.
type SupplierError struct {
	Kind     model.ErrorKind
	Supplier model.SupplierType
	Message  string
	Err      error
}

func (e *SupplierError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *SupplierError) Unwrap() error { return e.Err }

// OrderFailure signals that the supplier rejected a request.
func OrderFailure(supplier model.SupplierType, message string) error {
	return &SupplierError{Kind: model.ErrorKindSupplierOrderFailure, Supplier: supplier, Message: message}
}

// Unavailable signals a network error or timeout talking to the supplier.
func Unavailable(supplier model.SupplierType, err error) error {
	return &SupplierError{
		Kind:     model.ErrorKindSupplierUnavailable,
		Supplier: supplier,
		Message:  fmt.Sprintf("%s unavailable: %v", supplier, err),
		Err:      err,
	}
}

// KindOf extracts the error kind carried by err.
func KindOf(err error) model.ErrorKind {
	var se *SupplierError
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, ErrCredentialsMissing):
		return model.ErrorKindCredentialsMissing
	case errors.Is(err, ErrUnsupportedSupplier):
		return model.ErrorKindUnsupportedSupplier
	}
	return model.ErrorKindSupplierOrderFailure
}
