package model

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError reports input that was rejected before any write.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// RequireText trims value and returns a ValidationError when nothing is left.
func RequireText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", validationErrorf(field, "%s is required", field)
	}
	return v, nil
}

// NormalizeEmail validates an email address and returns it lower-cased
// without any display name.
func NormalizeEmail(value string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		return "", validationErrorf("email", "invalid email %q", value)
	}
	return strings.ToLower(addr.Address), nil
}
