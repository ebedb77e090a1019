package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coredbus/dbus/fragments"
	"github.com/coredbus/dbus/wire"
)

// Transport sends and receives whole D-Bus messages on an
// authenticated connection. It does not interpret message contents:
// tracking pending calls, dispatching replies, and routing signals
// are the caller's responsibility.
type Transport interface {
	// Send marshals and writes msg. msg.Serial must already be set by
	// the caller.
	Send(ctx context.Context, msg *wire.Message) error
	// Recv reads and unmarshals the next message.
	Recv(ctx context.Context) (*wire.Message, error)
	// Capabilities returns the capabilities negotiated for this
	// connection.
	Capabilities() Capability
	// Shutdown closes the underlying connection. Any Send or Recv
	// blocked at the time fails with an error.
	Shutdown() error
}

// connTransport is a Transport over a rawConn, with optional
// ancillary-data unix-fd passing.
type connTransport struct {
	conn rawConn
	caps Capability
}

// newConnTransport wraps an authenticated rawConn into a message
// Transport. caps must reflect the capabilities actually negotiated
// during authentication.
func newConnTransport(conn rawConn, caps Capability) Transport {
	return &connTransport{conn: conn, caps: caps}
}

func (t *connTransport) Capabilities() Capability { return t.caps }

func (t *connTransport) Shutdown() error { return t.conn.Close() }

func (t *connTransport) Send(ctx context.Context, msg *wire.Message) error {
	bs, fds, err := wire.EncodeMessage(fragments.NativeEndian, msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if len(fds) > 0 && !t.caps.Has(CapUnixFD) {
		return fmt.Errorf("message carries %d unix-fds but connection did not negotiate fd passing", len(fds))
	}
	if err := t.withDeadline(ctx, func() error {
		if len(fds) > 0 {
			t.conn.sendFDs(fds)
		}
		_, err := t.conn.Write(bs)
		return err
	}); err != nil {
		if ctx.Err() != nil {
			return &Cancelled{Reason: err}
		}
		return &Io{Reason: fmt.Errorf("sending message: %w", err)}
	}
	return nil
}

func (t *connTransport) Recv(ctx context.Context) (*wire.Message, error) {
	var msg *wire.Message
	err := t.withDeadline(ctx, func() error {
		var err error
		msg, err = t.recvOne()
		return err
	})
	if err != nil {
		var decErr *wire.DecodeError
		if errors.As(err, &decErr) {
			return nil, decErr
		}
		if ctx.Err() != nil {
			return nil, &Cancelled{Reason: err}
		}
		return nil, &Io{Reason: fmt.Errorf("receiving message: %w", err)}
	}
	return msg, nil
}

// recvOne decodes exactly one message from the connection. Its
// UNIX_FDS header field, once parsed, drives a single pop from the
// fds that have arrived as ancillary data alongside the message
// bytes.
func (t *connTransport) recvOne() (*wire.Message, error) {
	recvFDs := func(n int) ([]wire.FD, error) {
		if !t.caps.Has(CapUnixFD) {
			return nil, fmt.Errorf("message declares unix-fds but connection did not negotiate fd passing")
		}
		return t.conn.popFDs(n)
	}
	return wire.DecodeMessage(t.conn, recvFDs)
}

// withDeadline runs fn, first applying ctx's deadline to the
// connection if it supports deadlines, and clearing it afterwards.
func (t *connTransport) withDeadline(ctx context.Context, fn func() error) error {
	if dl, ok := t.conn.(interface{ SetDeadline(time.Time) error }); ok {
		if deadline, ok := ctx.Deadline(); ok {
			if err := dl.SetDeadline(deadline); err != nil {
				return err
			}
			defer dl.SetDeadline(time.Time{})
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}
