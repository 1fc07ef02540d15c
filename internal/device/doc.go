// Package device holds the in-memory device state store.
//
// The cloud delivers each device as a nested JSON document ("itemData") whose
// exact shape varies by firmware and family. Rather than forcing every
// variant into a rigid schema, the store keeps the raw attribute tree and
// exposes typed accessors for the handful of well-known paths (id, name,
// uiid, online, params).
//
// State updates arrive as partial parameter documents pushed over the
// realtime channel. They are folded in with a recursive deep merge: maps are
// merged key-wise, the incoming side wins on conflict, and keys absent from
// the update are never deleted. Availability changes bypass the merge and
// replace the online flag directly.
//
// Thread Safety:
//   - All Store methods are safe for concurrent use.
//   - Snapshot reads return deep copies; callers may mutate them freely.
package device
