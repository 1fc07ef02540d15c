// Package uiid translates between generic device intents and the per-family
// wire formats of eWeLink hardware.
//
// Every eWeLink device carries a numeric family identifier (uiid) that fixes
// the shape of its parameter document: a basic relay exposes a flat "switch"
// field, a four-gang strip an array of per-outlet entries, a dimmable light
// nested brightness and colour objects, and so on. An Adapter hides those
// differences behind one interface of read accessors and parameter builders.
//
// The Registry resolves a family identifier to its Adapter. Unknown families
// resolve to a best-effort generic adapter rather than failing, so devices
// from unrecognised firmware still surface basic switch state and signal
// readings.
package uiid
