// Package cli provides the interactive SanderCoin command-line client.
//
// It wires configuration, the local credential database, the exchange
// client and the session store, and serves a REPL on top of them. Pages
// that need a session (buy, sell, transfer, history) go through the route
// guard; an anonymous user is asked to log in and then taken back to the
// page they asked for.
//
// Key features:
//   - Register / Verify / Login / Logout, with the session restored on start
//   - Balance lookup and the current token value
//   - Purchase, sell and transfer forms with validation and retry
//   - Transaction history
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
