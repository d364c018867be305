package domain

import "errors"

// Sentinel errors shared across the engine.
var (
	// ErrNotFound is returned when a paper or signal id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrNotConfigured is returned when a component needs a credential
	// that was not provided.
	ErrNotConfigured = errors.New("not configured")
	// ErrMalformedResponse is returned when an LLM reply does not match
	// the expected JSON contract.
	ErrMalformedResponse = errors.New("malformed model response")
)
