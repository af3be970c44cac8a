package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	allDigitsRegex = regexp.MustCompile(`^\d+$`)

	// Domestic mobile pattern: leading "01" followed by 8-9 digits
	mobilePhoneRegex = regexp.MustCompile(`^01[0-9]{8,9}$`)

	isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	passwordSymbols = "!@#$%^&*"
)

// Age bounds enforced on the birth date at submission time.
const (
	MinSignupAge = 14
	MaxSignupAge = 120
)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("not_all_digits", NotAllDigits)
	_ = v.RegisterValidation("password_strength", PasswordStrength)
	_ = v.RegisterValidation("mobile_phone", MobilePhone)
	_ = v.RegisterValidation("birth_date", BirthDate)
}

// NotAllDigits rejects values composed entirely of digits
func NotAllDigits(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return !allDigitsRegex.MatchString(val)
}

// PasswordStrength requires at least one lowercase letter, one uppercase
// letter, one digit, and one symbol from the fixed set !@#$%^&*
func PasswordStrength(fl validator.FieldLevel) bool {
	val := fl.Field().String()

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range val {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// MobilePhone validates the domestic mobile number shape
func MobilePhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return mobilePhoneRegex.MatchString(val)
}

// BirthDate validates an ISO date (YYYY-MM-DD) whose computed age falls in
// [MinSignupAge, MaxSignupAge]. Age is calendar-year subtraction: the month
// and day are deliberately not considered, matching the signup policy.
func BirthDate(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if !isoDateRegex.MatchString(val) {
		return false
	}

	birth, err := time.Parse("2006-01-02", val)
	if err != nil {
		return false
	}

	age := time.Now().Year() - birth.Year()
	return age >= MinSignupAge && age <= MaxSignupAge
}
