package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError is returned for input that can never succeed as sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// normalizeText trims s and checks its length in runes.
func normalizeText(field, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return "", NewValidationError(field, fmt.Sprintf("%s is required", field))
	}
	if n < min {
		return "", NewValidationError(field, fmt.Sprintf("%s must be at least %d characters", field, min))
	}
	if n > max {
		return "", NewValidationError(field, fmt.Sprintf("%s cannot be more than %d characters", field, max))
	}
	return s, nil
}
