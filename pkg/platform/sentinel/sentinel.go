package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so the raffle service can translate them into domain
// errors without depending on store internals.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity (snapshot, outbox row) does not exist in the store
// - ErrInvalidState: entity in the wrong state for the requested change
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
