// Package client contains client-side building blocks for TaskFlow.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     registration, login, task CRUD and the health probe.
//  2. A concrete HTTP implementation (see HTTPClient) that attaches the
//     bearer token to every request and maps error responses to sentinel
//     errors.
//  3. Local persistence bootstrap (InitDatabase) for the CLI session store,
//     an SQLite database migrated with embedded goose migrations.
//
// # Error Handling
//
// Failed calls return an *APIError that unwraps to one of ErrValidation,
// ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict or ErrServer, so
// callers can match with errors.Is. Transport failures wrap ErrUnavailable.
//
// All operations accept context.Context and honor cancellation/timeouts.
// HTTPClient is safe for concurrent use.
package client
