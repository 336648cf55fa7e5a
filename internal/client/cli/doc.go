// Package cli implements the gophauth command-line client.
//
// Each invocation runs one sub-command (register, login, refresh, logout,
// delete-user, ping) against the session service. The token pair survives
// between invocations in a session file; passwords are read from the
// terminal without echo and never written anywhere.
package cli
