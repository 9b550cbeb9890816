// Package api implements the HTTP gateway and WebSocket server.
//
// One server hosts whichever halves the process runs:
//   - The registry gateway under registry.api_prefix: device and service
//     CRUD mapped onto catalog.Registry, with catalog sentinels translated
//     to 400, 404 and 500 responses in one place.
//   - The control loop read API: GET / (dashboard rows), /debug/cache,
//     /debug/state and the /ws stream with "dashboard" and "commands"
//     channels.
//
// GET /health and /debug/metrics are always served.
//
// # Security
//
// When security.jwt.secret is set every registry route requires an HS256
// bearer token. Service clients listed under security.clients obtain one
// from POST {api_prefix}/auth/token with their client id and secret. The
// read API stays open.
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
