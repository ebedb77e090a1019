package transport

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/coredbus/dbus/wire"
)

// dialTCP connects to a bus exposed over plain TCP. This transport
// cannot carry unix file descriptors.
func dialTCP(ctx context.Context, host, port string) (rawConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}
	return &tcpConn{conn: conn}, nil
}

type tcpConn struct {
	conn net.Conn
}

func (t *tcpConn) Read(bs []byte) (int, error)  { return t.conn.Read(bs) }
func (t *tcpConn) Write(bs []byte) (int, error) { return t.conn.Write(bs) }
func (t *tcpConn) Close() error                 { return t.conn.Close() }

func (t *tcpConn) SetDeadline(d time.Time) error { return t.conn.SetDeadline(d) }

func (t *tcpConn) supportsFDs() bool { return false }

func (t *tcpConn) sendFDs(fds []wire.FD) {
	// Silently dropped: callers must not request CapUnixFD over this
	// transport. connTransport enforces this before ever calling
	// sendFDs with a non-empty slice.
}

func (t *tcpConn) popFDs(n int) ([]wire.FD, error) {
	if n == 0 {
		return nil, nil
	}
	return nil, errors.New("TCP transport cannot carry unix file descriptors")
}
