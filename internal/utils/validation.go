package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("phone", validatePhone)
	validate.RegisterValidation("strong_password", validateStrongPassword)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	return ValidatePasswordStrength(fl.Field().String()) == nil
}

// ValidatePasswordStrength requires a minimum length plus at least one letter
// and one digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters", PasswordMinLength)
	}
	if len(password) > PasswordMaxLength {
		return fmt.Errorf("password must be at most %d characters", PasswordMaxLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}

// FormatValidationErrors maps each failed field to a readable message.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := toSnakeCase(fe.Field())
		switch fe.Tag() {
		case "required":
			details[field] = field + " is required"
		case "email":
			details[field] = "invalid email address"
		case "phone":
			details[field] = "invalid phone number"
		case "strong_password":
			details[field] = fmt.Sprintf("must be at least %d characters with a letter and a digit", PasswordMinLength)
		case "min":
			details[field] = "must be at least " + fe.Param()
		case "max":
			details[field] = "must be at most " + fe.Param()
		case "oneof":
			details[field] = "must be one of: " + fe.Param()
		case "eqfield":
			details[field] = "must match " + toSnakeCase(fe.Param())
		default:
			details[field] = "failed on " + fe.Tag()
		}
	}
	return details
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
