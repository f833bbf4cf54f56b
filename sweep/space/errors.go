package space

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is matched by every *ConfigError via errors.Is.
var ErrInvalidSpec = errors.New("invalid sweep specification")

// ConfigError describes a sweep declaration that cannot be executed.
type ConfigError struct {
	Dimension string // offending dimension, empty for spec-wide problems
	Reason    string
	Err       error // optional underlying cause
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Dimension != "" {
		msg = fmt.Sprintf("dimension %q: %s", e.Dimension, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidSpec) hold for every ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidSpec }
