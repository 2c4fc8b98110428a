package domain

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report wire names (company_name) rather than Go names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
			return !strings.ContainsAny(fl.Field().String(), "\r\n")
		})
	})
	return validate
}

// validateStruct runs tag validation and always returns a non-nil,
// possibly empty, ValidationError.
func validateStruct(v any) *ValidationError {
	verr := &ValidationError{}
	err := structValidator().Struct(v)
	if err == nil {
		return verr
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Message = err.Error()
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "singleline":
		return "Line breaks are not allowed."
	case "url":
		return "Enter a valid URL."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}

// ValidateEmail checks a single address the way the struct rules do.
func ValidateEmail(email string) error {
	if err := structValidator().Var(email, "required,email,max=254"); err != nil {
		return FieldError("email", "Enter a valid email address.")
	}
	return nil
}
