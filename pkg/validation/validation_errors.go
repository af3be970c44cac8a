package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to user-facing labels
var FieldLabels = map[string]string{
	"Username":        "Username",
	"Email":           "Email",
	"Password":        "Password",
	"ConfirmPassword": "Password confirmation",
	"Phone":           "Phone number",
	"BirthDate":       "Birth date",
	"Gender":          "Gender",
	"ProfileImage":    "Profile image",
}

// fieldKeys maps struct field names to the JSON keys the client sent, so
// inline errors attach to the right form field.
var fieldKeys = map[string]string{
	"Username":        "username",
	"Email":           "email",
	"Password":        "password",
	"ConfirmPassword": "confirm_password",
	"Phone":           "phone",
	"BirthDate":       "birth_date",
	"Gender":          "gender",
	"ProfileImage":    "profile_image",
}

// FieldErrors converts validator errors into a field-keyed message map.
// Non-validation errors collapse into a single "general" entry.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out["general"] = err.Error()
		return out
	}

	for _, e := range validationErrors {
		key, ok := fieldKeys[e.Field()]
		if !ok {
			key = strings.ToLower(e.Field())
		}
		// First failure per field wins; continuous-mode clients re-validate
		// on every change anyway.
		if _, exists := out[key]; !exists {
			out[key] = formatSingleError(e)
		}
	}
	return out
}

// FormatValidationErrors converts validator.ValidationErrors to a flat list
// of user-friendly messages
func FormatValidationErrors(err error) []string {
	var messages []string

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)

	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s must be at least %s", label, param)

	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s must be at most %s", label, param)

	case "email":
		return fmt.Sprintf("%s must be a valid email address", label)

	case "alphanum":
		return fmt.Sprintf("%s may only contain letters and digits", label)

	case "not_all_digits":
		return fmt.Sprintf("%s cannot consist of digits only", label)

	case "password_strength":
		return fmt.Sprintf("%s must contain a lowercase letter, an uppercase letter, a digit, and a symbol (%s)", label, passwordSymbols)

	case "eqfield":
		return fmt.Sprintf("%s must match %s", label, getFieldLabel(param))

	case "mobile_phone":
		return fmt.Sprintf("%s must be a valid mobile number (e.g. 01012345678)", label)

	case "birth_date":
		return fmt.Sprintf("%s must be a valid date (YYYY-MM-DD) for an age between %d and %d", label, MinSignupAge, MaxSignupAge)

	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Split(param, " "), ", "))

	default:
		return fmt.Sprintf("%s failed validation (%s)", label, e.Tag())
	}
}

func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
