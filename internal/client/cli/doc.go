// Package cli provides the interactive TaskFlow command-line client.
//
// It wires configuration, the local session store, API services and a REPL.
// A saved session is restored on start, so a user stays logged in across
// runs until the token expires, the server rejects it, or they log out.
//
// Key features:
//   - register / login / logout / whoami
//   - list with status, priority and search filters
//   - add, show, update, status and delete of tasks
//   - health of the server
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
