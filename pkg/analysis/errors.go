package analysis

import (
	"errors"
	"fmt"
)

// UserMessage is shown to people when the analysis service lets us down.
const UserMessage = "Failed to get analysis from AI. The response might be blocked or the API is unavailable."

var (
	// ErrInvalidResponse marks a service response that does not match the analysis schema.
	ErrInvalidResponse = errors.New("invalid analysis response")
	ErrEmptyImage      = errors.New("image is empty")
)

// ConfigurationError reports a missing credential. Fixing the configuration fixes it.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not set", e.Setting)
}

// ServiceError wraps any failure talking to, or understanding, the analysis service.
// It is safe to retry by hand; nothing retries automatically.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("analysis service %s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
