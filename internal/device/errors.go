package device

import "errors"

// Sentinel errors for the device store.
var (
	// ErrNotFound indicates the requested device id is not in the store.
	ErrNotFound = errors.New("device not found")
)
