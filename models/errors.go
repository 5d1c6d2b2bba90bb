// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

// Error categories. Package-specific errors wrap one of these so callers
// can branch on the category without knowing every sentinel.
var (
	ErrNotFound      = errors.New("not found")
	ErrRuleViolation = errors.New("rule violation")
)

// ValidationError reports missing or malformed input. It is returned
// before any store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
