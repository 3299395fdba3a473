package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPool marks a malformed pool address
	ErrInvalidPool = errors.New("invalid pool address")

	// ErrInvalidWindow marks an observation window that cannot be sampled
	ErrInvalidWindow = errors.New("invalid observation window")
)

// ConfigError is returned synchronously when an observer is misconfigured
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FetchError wraps a failed on-chain read. It is transient: the next block retries it.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
