package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/nexssio/storefront/internal/cart"
)

// New returns a configured validator with the storefront's custom tags:
//   - session:  a well-formed cart session token
//   - nonblank: a string with at least one non-whitespace character
//
// Field names in errors are reported by their json tag.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("session", validateSession)
	_ = v.RegisterValidation("nonblank", validateNonBlank)

	return v
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func validateSession(fl validatorv10.FieldLevel) bool {
	return cart.Session(fl.Field().String()).Valid()
}

func validateNonBlank(fl validatorv10.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
