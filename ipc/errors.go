package ipc

import "errors"

// Sentinel errors classifying IPC failures. Callers match with errors.Is.
var (
	// ErrConnection indicates the engine socket is absent, refused the
	// connection, or dropped mid-session.
	ErrConnection = errors.New("engine connection error")

	// ErrTimeout indicates no correlated reply arrived within the budget.
	// Commands are not retried on timeout: a non-idempotent command such as
	// playlist-next could be applied twice.
	ErrTimeout = errors.New("engine reply timeout")

	// ErrProtocol indicates a malformed or uncorrelated reply line.
	ErrProtocol = errors.New("engine protocol error")
)
