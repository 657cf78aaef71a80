package types

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks request payloads that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderUnavailable wraps failures of outbound LLM and audio providers.
	ErrProviderUnavailable = errors.New("provider unavailable")
)
