package transport

import (
	"io"

	"github.com/coredbus/dbus/wire"
)

// rawConn is a byte-oriented connection to a bus, with an optional
// side channel for passing unix file descriptors alongside the byte
// stream. It is the substrate that the auth handshake runs over, and
// that connTransport frames messages on top of.
type rawConn interface {
	io.Reader
	io.Writer
	io.Closer

	// supportsFDs reports whether this connection kind is capable of
	// carrying unix file descriptors at all (e.g. true for unix
	// domain sockets, false for TCP).
	supportsFDs() bool
	// popFDs returns the next n file descriptors that arrived as
	// ancillary data on previous Read calls.
	popFDs(n int) ([]wire.FD, error)
	// sendFDs queues fds to be sent as ancillary data with the very
	// next Write call.
	sendFDs(fds []wire.FD)
}
