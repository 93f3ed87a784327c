package config

import (
	"errors"
	"fmt"

	"github.com/dshills/cmdmgr/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownSetting indicates a key no section defines.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrTypeMismatch indicates a value of the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed indicates a value outside its allowed set.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError is returned when the configuration file is not valid TOML.
type ParseError = loader.ParseError

// ValidationError describes one setting with an unacceptable value.
type ValidationError struct {
	// Path is the dotted setting name, such as "log.level".
	Path    string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is implements error matching for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
