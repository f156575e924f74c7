package model

import "errors"

var (
	// ErrValidation marks a request rejected before any state was touched:
	// empty container ID, missing host or port, unknown proxy type.
	ErrValidation = errors.New("validation error")

	// ErrFormat marks a malformed import document.
	ErrFormat = errors.New("format error")

	// ErrPersistence marks a failed read or write of durable storage.
	ErrPersistence = errors.New("persistence error")

	// ErrDispatch marks an unexpected fault while computing a routing decision.
	ErrDispatch = errors.New("dispatch fault")
)
