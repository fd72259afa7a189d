package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

var shippingValidator = newShippingValidator()

func newShippingValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeShipping trims every field of the address.
func NormalizeShipping(addr model.ShippingAddress) model.ShippingAddress {
	addr.Name = strings.TrimSpace(addr.Name)
	addr.Address1 = strings.TrimSpace(addr.Address1)
	addr.Address2 = strings.TrimSpace(addr.Address2)
	addr.City = strings.TrimSpace(addr.City)
	addr.Province = strings.TrimSpace(addr.Province)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.CountryCode = strings.ToUpper(strings.TrimSpace(addr.CountryCode))
	addr.Phone = strings.TrimSpace(addr.Phone)
	addr.Email = strings.TrimSpace(addr.Email)
	return addr
}

// ValidateShipping reports the first missing or malformed address field as a ValidationError.
func ValidateShipping(addr model.ShippingAddress) error {
	err := shippingValidator.Struct(addr)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return domainErrors.ValidationError{Field: fieldErrs[0].Field(), Rule: fieldErrs[0].Tag()}
	}
	return err
}

// ValidatePlaceOrder checks a dispatch request before any supplier is contacted.
func ValidatePlaceOrder(req model.PlaceOrderRequest) error {
	if strings.TrimSpace(req.OrderID) == "" {
		return domainErrors.ErrMissingOrderID
	}
	if len(req.Items) == 0 {
		return domainErrors.ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return domainErrors.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Rule: "gt", Err: domainErrors.ErrInvalidItem}
		}
	}
	return ValidateShipping(req.Shipping)
}
