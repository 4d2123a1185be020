package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidCustomerData = errors.New("invalid customer data")
	ErrCartChanged         = errors.New("cart changed during checkout")
	ErrOrderNotFound       = errors.New("order not found")
)

// CustomerDataError carries field-level detail for ErrInvalidCustomerData.
type CustomerDataError struct {
	Fields map[string]string
}

func (e *CustomerDataError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%v (%s)", ErrInvalidCustomerData, strings.Join(parts, "; "))
}

func (e *CustomerDataError) Unwrap() error { return ErrInvalidCustomerData }
