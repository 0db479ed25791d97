package model

import "fmt"

// ValidationError reports rejected user input. Nothing is mutated when it
// is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a component that cannot be constructed. It
// surfaces at startup, never while serving calls.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: misconfigured: %s", e.Component, e.Reason)
}
