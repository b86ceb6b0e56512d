package woincui

import (
	"gitlab.com/NebulousLabs/errors"

	"gitlab.com/NebulousLabs/woincui/rpc"
)

// The closed error taxonomy of spec.md §7, rendered as sentinel errors in
// the style of gitlab.com/NebulousLabs/errors (compare with modules/
// renter/worker.go's errors.New/errors.AddContext idiom). Callers should
// compare with errors.Contains rather than ==, so these may be wrapped with
// context without losing identity.
var (
	// ErrDisconnected is returned when a command is attempted against a
	// disconnected Client, or when a queued job is dropped because its
	// JobQueue has shut down.
	ErrDisconnected = errors.New("host is disconnected")

	// ErrUnauthorized is returned when the daemon rejects a command because
	// the session has not been authorized (or authorization failed).
	ErrUnauthorized = errors.New("host rejected the command as unauthorized")

	// ErrConnectionError covers transport-level failures other than a
	// clean disconnect (dial failure, reset connection, timeout).
	ErrConnectionError = errors.New("connection error communicating with host")

	// ErrClientError covers a daemon-side failure processing an
	// otherwise well-formed command.
	ErrClientError = errors.New("host reported a client error")

	// ErrParsingError covers malformed responses from the daemon.
	ErrParsingError = errors.New("could not parse host response")

	// ErrLogicError covers responses that violate the protocol's own
	// invariants (e.g. an impossible status code).
	ErrLogicError = errors.New("logic error handling host response")

	// ErrShutdown is returned by every Controller method once Shutdown has
	// been called.
	ErrShutdown = errors.New("controller has been shut down")

	// ErrInvalidArgument is returned synchronously by a Controller method
	// when a required string argument is empty: a host id, a master URL,
	// a password, a task name, etc. This is distinct from UnknownHostError,
	// which covers a host id that is merely not currently known — an empty
	// host id fails this precondition before any lookup is attempted, per
	// original_source/libui/src/controller.cc's check_not_empty_host_name__
	// always running ahead of verify_known_host_. Unlike the rest of the
	// taxonomy it never reaches a Future; the method returns it directly
	// without queuing any job.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrHostAlreadyAdded is returned by AddHost when called twice for the
	// same host id without an intervening RemoveHost.
	ErrHostAlreadyAdded = errors.New("host already added")
)

// UnknownHostError is returned when a Controller method references a host
// id that was never added, or that has already been removed.
type UnknownHostError struct {
	Host string
}

// Error implements the error interface.
func (e UnknownHostError) Error() string {
	return "unknown host \"" + e.Host + "\""
}

// statusToErr maps the wire-level rpc.Status of a failed command to the
// public error taxonomy. Only called for non-OK statuses; a status of
// StatusOK passed in is a programming error.
func statusToErr(status rpc.Status) error {
	switch status {
	case rpc.StatusDisconnected:
		return ErrDisconnected
	case rpc.StatusUnauthorized:
		return ErrUnauthorized
	case rpc.StatusConnectionError:
		return ErrConnectionError
	case rpc.StatusClientError:
		return ErrClientError
	case rpc.StatusParsingError:
		return ErrParsingError
	default:
		return ErrLogicError
	}
}
