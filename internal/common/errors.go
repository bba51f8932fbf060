package common

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the resolution pipeline. Transport, validation, and
// parse failures are recovered internally by advancing to the next relay or
// adapter; only NotFoundError surfaces to callers, scoped to one asset.

// TransportError is a network failure or non-success HTTP status.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport failure: HTTP %d (%s)", e.Status, e.URL)
	}
	return fmt.Sprintf("transport failure: %v (%s)", e.Err, e.URL)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError means a payload was fetched but failed a shape check
// (too short, missing structural markers).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failure: " + e.Reason
}

// ParseError means an expected field was missing after a successful decode.
type ParseError struct {
	Source string
	Field  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure: %s missing %s", e.Source, e.Field)
}

// ErrAssetNotFound is the terminal resolution failure: every adapter in the
// chain was exhausted. Test with errors.Is.
var ErrAssetNotFound = errors.New("asset not found")

// NotFoundError wraps ErrAssetNotFound with the identifier and last underlying cause.
type NotFoundError struct {
	Identifier string
	Last       error
}

func (e *NotFoundError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("asset %s not found: %v", e.Identifier, e.Last)
	}
	return fmt.Sprintf("asset %s not found", e.Identifier)
}

func (e *NotFoundError) Unwrap() error { return ErrAssetNotFound }
