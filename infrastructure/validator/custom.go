package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

func validatePasswordStrength(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	hasDigit := false
	hasSpecialChar := false

	for _, char := range password {
		if unicode.IsDigit(char) {
			hasDigit = true
		} else if !unicode.IsLetter(char) {
			hasSpecialChar = true
		}
	}

	return hasDigit && hasSpecialChar
}

func validateNameWithSpecialChars(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	regex := regexp.MustCompile(`^[\p{L}'\-]+$`)
	return regex.MatchString(name)
}

var base64Payload = regexp.MustCompile(`^[A-Za-z0-9+/=\s]+$`)

// image frames arrive either as raw base64 or a data URI
func validateImagePayload(fl validator.FieldLevel) bool {
	payload := fl.Field().String()
	if payload == "" {
		return false
	}
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		if !strings.HasPrefix(payload, "data:image/") {
			return false
		}
		payload = payload[idx+len(";base64,"):]
	}
	return base64Payload.MatchString(payload)
}
