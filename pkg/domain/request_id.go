package domain

import "github.com/google/uuid"

// RequestID correlates a randomness request with its eventual fulfillment.
// The coordinator mints it when a request is accepted; the fulfillment
// callback carries it back.
type RequestID string

// NewRequestID mints a fresh correlation id.
func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

// String returns the raw id.
func (r RequestID) String() string {
	return string(r)
}

// IsNil reports whether the id is unset.
func (r RequestID) IsNil() bool {
	return r == ""
}
