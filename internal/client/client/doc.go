// Package client talks to the gophauth session service.
//
// GRPCClient implements Client over gRPC. It holds the current token pair,
// attaches the access token to outgoing calls, and rotates the pair once when
// the server answers that the access token expired. Status codes are mapped
// to the sentinel errors in errors.go; rejected registrations come back as
// *ValidationError with one entry per field.
//
// SessionFile persists the pair between CLI invocations.
package client
