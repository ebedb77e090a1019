package dbus

import (
	"fmt"

	"github.com/coredbus/dbus/auth"
	"github.com/coredbus/dbus/transport"
	"github.com/coredbus/dbus/wire"
)

// DecodeError is returned when a message or value cannot be parsed
// from its wire representation.
type DecodeError = wire.DecodeError

// EncodeError is returned when a [Message] or [Value] cannot be
// represented in the D-Bus wire format.
type EncodeError = wire.EncodeError

// InvalidName is returned when a bus, interface, member, error, or
// object path name does not conform to the D-Bus naming grammar.
type InvalidName = wire.InvalidName

// InvalidAddress is returned when a D-Bus server address string does
// not conform to the address grammar.
type InvalidAddress struct {
	Address string
	Reason  error
}

func (e *InvalidAddress) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Address, e.Reason)
}

func (e *InvalidAddress) Unwrap() error { return e.Reason }

// UnknownTransport is returned when an address names a transport this
// package doesn't implement.
type UnknownTransport = transport.UnknownTransport

// ConnectFailure is returned when every candidate address failed to
// connect.
type ConnectFailure struct {
	// Addresses is the list of addresses that were tried.
	Addresses []string
	// Reason wraps the error from the first candidate that failed.
	Reason error
}

func (e *ConnectFailure) Error() string {
	return fmt.Sprintf("failed to connect to any of %d candidate address(es): %s", len(e.Addresses), e.Reason)
}

func (e *ConnectFailure) Unwrap() error { return e.Reason }

// LauncherFailure is returned when a bus launcher helper process
// (such as dbus-launch) could not be run or produced no usable
// address.
type LauncherFailure = transport.LauncherFailure

// AuthFailure is returned when the SASL authentication handshake with
// a bus fails.
type AuthFailure = auth.Failure

// Io is returned when a transport-level I/O operation fails.
type Io = transport.Io

// Cancelled is returned when an operation is aborted because its
// context was cancelled or its deadline exceeded.
type Cancelled = transport.Cancelled

// CallError is the error returned from a failed D-Bus method call.
type CallError struct {
	// Name is the error name provided by the remote peer.
	Name string
	// Body is the error reply's body, typically a single descriptive
	// string.
	Body []Value
}

func (e *CallError) Error() string {
	if len(e.Body) == 1 && e.Body[0].Kind() == KindString {
		return fmt.Sprintf("call error %s: %s", e.Name, e.Body[0].Str())
	}
	return fmt.Sprintf("call error %s", e.Name)
}
