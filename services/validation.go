package services

import (
	"fmt"
	"regexp"
	"strings"

	"food-webapp/lang"
	"food-webapp/models"
)

var (
	nameRe  = regexp.MustCompile(`^[\p{L}\s]+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{9}$`)
)

// ValidationError is a form error the customer can fix. Message is already
// localized for display.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeOrderForm trims every field and lower-cases the delivery method.
func NormalizeOrderForm(form models.OrderForm) models.OrderForm {
	return models.OrderForm{
		Name:     strings.TrimSpace(form.Name),
		Phone:    strings.TrimSpace(form.Phone),
		Address:  strings.TrimSpace(form.Address),
		Delivery: models.DeliveryMethod(strings.ToLower(strings.TrimSpace(string(form.Delivery)))),
	}
}

// ValidateOrderForm checks name, phone, then address, and stops at the
// first failure. The form is expected to be normalized.
func ValidateOrderForm(form models.OrderForm, langCode string) error {
	if !nameRe.MatchString(form.Name) {
		return &ValidationError{Field: "name", Message: lang.T(langCode, "err_name")}
	}
	if !phoneRe.MatchString(form.Phone) {
		return &ValidationError{Field: "phone", Message: lang.T(langCode, "err_phone")}
	}
	if form.Delivery == models.DeliveryDelivery && form.Address == "" {
		return &ValidationError{Field: "address", Message: lang.T(langCode, "err_address")}
	}
	if form.Delivery != models.DeliveryPickup && form.Delivery != models.DeliveryDelivery {
		return &ValidationError{Field: "delivery", Message: lang.T(langCode, "err_delivery")}
	}
	return nil
}
