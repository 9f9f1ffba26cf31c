package bridge

import (
	"errors"
	"fmt"

	"telematics-bridge/internal/completion"
)

var (
	// ErrNotInitialized is returned by commands that need the engine before
	// Initialize has run.
	ErrNotInitialized = errors.New("tracking api is not initialized")
	// ErrPermission is returned when enabling the SDK without location permission.
	ErrPermission = errors.New("missing location permission")
	// ErrInvalidParams is returned when a structured input lacks a required field.
	ErrInvalidParams = errors.New("invalid params")
)

func missingParams(fields ...string) error {
	return fmt.Errorf("%w: missing %q", ErrInvalidParams, fields)
}

// Code maps an error to the code reported to the consumer.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInitialized):
		return "NOT_INITIALIZED"
	case errors.Is(err, ErrPermission):
		return "INVALID_PERMISSION"
	case errors.Is(err, ErrInvalidParams):
		return "INVALID_PARAMS"
	case errors.Is(err, completion.ErrSuperseded):
		return "SUPERSEDED"
	default:
		return "Error"
	}
}
