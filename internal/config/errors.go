package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrValidationFailed indicates a setting value fails validation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrTypeMismatch indicates a setting value has the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ValidationError describes a rejected setting.
type ValidationError struct {
	// Path is the setting path, e.g. "ranking.minScore".
	Path string
	// Message describes the violation.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Path, e.Message)
}

// Is matches ValidationError against ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// TypeError is returned when a setting value cannot be converted.
type TypeError struct {
	// Path is the setting path.
	Path string
	// Expected is the expected type name.
	Expected string
	// Actual is the actual type name.
	Actual string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("config: %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// Is matches TypeError against ErrTypeMismatch.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

func unknownSetting(section, key string) error {
	return &ValidationError{Path: section + "." + key, Message: "unknown setting"}
}

func typeMismatch(section, key, expected string, val any) error {
	return &TypeError{Path: section + "." + key, Expected: expected, Actual: fmt.Sprintf("%T", val)}
}
