// Package gemini owns the Gemini protocol engine.
//
// Ownership boundary:
// - request-line parsing and validation
// - per-connection protocol state machine (Conn)
// - application message contract and per-connection Channel
// - TLS listener, application lifecycle and connection registry (Server)
//
// Routing, content generation and CLI wiring live outside this package and only
// consume the Application contract.
package gemini
