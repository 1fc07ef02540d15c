package ws

import "errors"

// Sentinel errors for the realtime channel.
var (
	// ErrNotConnected indicates a send was attempted while the channel is
	// not in the connected state. Callers fail fast rather than queueing.
	ErrNotConnected = errors.New("realtime channel not connected")

	// ErrConnectionLost indicates the channel dropped while a command was
	// awaiting its acknowledgement.
	ErrConnectionLost = errors.New("realtime channel connection lost")

	// ErrDispatchFailed indicates the dispatch service did not yield a
	// usable gateway address.
	ErrDispatchFailed = errors.New("resolving realtime gateway failed")
)
