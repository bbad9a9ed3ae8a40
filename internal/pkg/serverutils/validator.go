package serverutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the validate tags on a request DTO and returns a
// client-friendly message for the first failing field.
func ValidateStruct(s interface{}) (string, bool) {
	err := validate.Struct(s)
	if err == nil {
		return "", true
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return "Invalid request body", false
	}

	first := validationErrs[0]
	field := strings.ToLower(first.Field())
	switch first.Tag() {
	case "required":
		return field + " is required", false
	case "email":
		return "Please enter a valid email address.", false
	case "min":
		return field + " must be at least " + first.Param() + " characters", false
	default:
		return field + " is invalid", false
	}
}
