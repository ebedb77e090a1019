package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/coredbus/dbus/wire"
)

// Loopback returns a Transport that delivers every message sent on it
// straight back to its own Recv, useful for exercising client code
// without a real bus. Each delivered message is an independent
// [wire.DeepDup] of the value sent, so a unix-fd in the body is never
// shared between the "sender" and "receiver" views of the loopback
// connection.
func Loopback() Transport {
	return &loopbackTransport{
		box: make(chan *wire.Message, 1),
	}
}

type loopbackTransport struct {
	box    chan *wire.Message
	closed bool
}

func (l *loopbackTransport) Capabilities() Capability { return CapUnixFD }

func (l *loopbackTransport) Send(ctx context.Context, msg *wire.Message) error {
	if l.closed {
		return errors.New("loopback transport is closed")
	}
	dup := make([]wire.Value, len(msg.Body))
	for i, v := range msg.Body {
		d, err := wire.DeepDup(v)
		if err != nil {
			return fmt.Errorf("duplicating body value %d: %w", i, err)
		}
		dup[i] = d
	}
	cp := *msg
	cp.Body = dup
	select {
	case l.box <- &cp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *loopbackTransport) Recv(ctx context.Context) (*wire.Message, error) {
	select {
	case msg, ok := <-l.box:
		if !ok {
			return nil, errors.New("loopback transport is closed")
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *loopbackTransport) Shutdown() error {
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.box)
	return nil
}
