package tree

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a structural parameter is out of range.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError reports which parameter was rejected and with what value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }
