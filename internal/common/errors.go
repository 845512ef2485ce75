// Package common defines shared constants and sentinel errors used across
// the storage, audit and trash layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrUnavailable marks a store that could not be connected to
	// (refused, timed out, DNS failure). It is retried by the coordinator.
	ErrUnavailable = errors.New("store unavailable")

	// ErrDataUnavailable is returned when neither the primary nor the
	// fallback store could serve a business-data operation.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrAuditDropped reports an audit entry that could not be written to
	// any store. It is informational only.
	ErrAuditDropped = errors.New("audit entry dropped")

	// Validation errors.
	ErrUnknownKind = errors.New("unknown entity kind")
)
