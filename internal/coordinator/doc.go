// Package coordinator wires the realtime channel, the device store, and the
// family registry into one control surface.
//
// Inbound, it consumes routed state pushes and availability flips: button
// events are dispatched to registered handlers before the merge so repeated
// identical presses still fire, then the partial parameter document is
// deep-merged into the store and the result republished.
//
// Outbound, it is the command facade: an intent (switch, brightness, colour)
// is translated by the device's family adapter into a parameter document,
// sent over the persistent channel, and on a clean acknowledgement merged
// optimistically into the store so callers see the new state immediately.
//
// A periodic refresh re-fetches the full device list from the cloud to
// recover anything missed while disconnected.
package coordinator
