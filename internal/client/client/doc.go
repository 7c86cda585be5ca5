// Package client talks to the SanderCoin exchange.
//
// # Overview
//
// The package provides:
//  1. The Client interface describing the exchange API used by the CLI:
//     login, registration and verification, balances, token value, the
//     three transaction kinds and transaction history.
//  2. RESTClient, a JSON-over-HTTP implementation. It attaches the bearer
//     token and a request id, paces requests with a RateLimiter and stops
//     sending for the Retry-After period when the server answers 429.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) that opens
//     the SQLite database and applies the embedded goose migrations.
//
// # Error Handling
//
// Every failure of a RESTClient call is an *Error whose Kind tells callers
// what happened. The sentinels ErrUnavailable, ErrUnauthorized, ErrRejected
// and ErrProtocol match kinds through errors.Is. ServerMessage and MessageOr
// surface the server's own text when it sent one.
package client
