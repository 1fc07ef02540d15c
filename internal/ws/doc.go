// Package ws maintains the persistent realtime channel to the eWeLink cloud.
//
// The cloud pushes device state changes and availability transitions over a
// WebSocket, and accepts control commands on the same socket. This package
// owns three concerns:
//
//   - Client: the connection lifecycle. It resolves the gateway address via
//     the dispatch service, dials, announces the session, then reads frames
//     until the connection drops. Reconnection is automatic with a linear
//     backoff (5s, +5s per consecutive failure, capped at 60s) that resets
//     once a session is established. Stop cancels the supervising context
//     and no further attempt is scheduled.
//
//   - Correlator: request/reply matching. Commands carry a unique sequence
//     identifier; the server echoes it in the acknowledgement. Each pending
//     command holds a one-shot completion channel, so exactly one of the
//     reply, the timeout, or a connection loss resolves it. Replies arriving
//     after resolution are dropped.
//
//   - Router: inbound frame classification. A frame whose sequence matches a
//     pending command is consumed as its acknowledgement; otherwise the
//     action field selects a state push ("update") or an availability push
//     ("sysmsg"). Malformed frames are logged and dropped, never fatal.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
package ws
