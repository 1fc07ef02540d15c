// Package api exposes the daemon's local HTTP control surface.
//
// It serves device reads straight from the in-memory store, forwards
// control intents to the coordinator, and can guard every route except
// the health check behind bearer-token authentication.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
