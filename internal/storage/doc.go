// Package storage persists the daemon's durable state in SQLite.
//
// Two repositories live here: Sessions holds the single cloud login session
// so restarts do not burn login attempts, and Snapshots holds the last known
// attribute tree per device so state queries can be answered before the
// first cloud fetch completes.
package storage
