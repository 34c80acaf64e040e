package deploynet

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNotFound          = errors.New("deploynet: network not found")
	ErrConfiguration     = errors.New("deploynet: configuration error")
	ErrNoProvider        = errors.New("deploynet: network has no signing provider")
	ErrDuplicateProfile  = errors.New("deploynet: duplicate network name")
	ErrIncompleteProfile = errors.New("deploynet: network needs host and port or a provider")
	ErrMixedProfile      = errors.New("deploynet: network sets both host/port and a provider")
)

// NotFoundError is returned when a network name is absent from the table.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("deploynet: network %q not found", e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConfigurationError is returned when a remote-signing provider cannot be
// built from the environment. Variable names the offending variable.
type ConfigurationError struct {
	Variable string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("deploynet: %s %s", e.Variable, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
