// Package driving defines interfaces that external actors (CLI, TUI, MCP)
// use to interact with core services. These are the "driving" ports in
// hexagonal architecture terminology - they drive the application.
//
// Every operation takes the caller's *domain.Session explicitly; the core
// keeps no session state of its own.
//
// Implementations of these interfaces live in internal/core/services.
package driving
