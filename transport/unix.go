package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/coredbus/dbus/wire"
	"github.com/creachadair/mds/queue"
	"golang.org/x/sys/unix"
)

// dialUnix connects to the unix domain socket at path.
func dialUnix(ctx context.Context, path string, abstract bool) (rawConn, error) {
	name := path
	if abstract {
		// Linux abstract sockets are addressed with a leading NUL
		// byte in the socket name.
		name = "\x00" + path
	}
	addr := &net.UnixAddr{Net: "unix", Name: name}

	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
	}

	ret := &unixConn{conn: conn, fds: queue.New[wire.FD]()}
	ret.buf = bufio.NewReader(funcReader(ret.readToBuf))
	return ret, nil
}

// unixConn is a rawConn over a unix domain socket, supporting
// ancillary-data file descriptor passing via SCM_RIGHTS.
type unixConn struct {
	conn *net.UnixConn
	oob  [512]byte
	buf  *bufio.Reader
	fds  *queue.Queue[wire.FD]

	pendingSend []wire.FD
}

func (u *unixConn) Read(bs []byte) (int, error) { return u.buf.Read(bs) }

func (u *unixConn) Write(bs []byte) (int, error) {
	if len(u.pendingSend) == 0 {
		return u.conn.Write(bs)
	}
	fds := u.pendingSend
	u.pendingSend = nil

	raw := make([]int, len(fds))
	for i, fd := range fds {
		raw[i] = fd.Int()
	}
	scm := unix.UnixRights(raw...)
	n, oobn, err := u.conn.WriteMsgUnix(bs, scm, nil)
	if err != nil {
		return n, err
	}
	if oobn != len(scm) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (u *unixConn) Close() error {
	for {
		fd, ok := u.fds.Pop()
		if !ok {
			break
		}
		fd.Close()
	}
	return u.conn.Close()
}

func (u *unixConn) SetDeadline(t time.Time) error { return u.conn.SetDeadline(t) }

func (u *unixConn) supportsFDs() bool { return true }

func (u *unixConn) sendFDs(fds []wire.FD) {
	u.pendingSend = append(u.pendingSend, fds...)
}

func (u *unixConn) popFDs(n int) ([]wire.FD, error) {
	ret := make([]wire.FD, 0, n)
	for range n {
		fd, ok := u.fds.Pop()
		if !ok {
			for _, fd := range ret {
				fd.Close()
			}
			return nil, errors.New("requested file descriptor not available")
		}
		ret = append(ret, fd)
	}
	return ret, nil
}

func (u *unixConn) readToBuf(bs []byte) (int, error) {
	n, oobn, flags, _, err := u.conn.ReadMsgUnix(bs, u.oob[:])
	if flags&unix.MSG_CTRUNC != 0 {
		return 0, errors.New("control message truncated")
	}
	if oobn > 0 {
		if oobErr := u.parseFDs(u.oob[:oobn]); oobErr != nil {
			return 0, oobErr
		}
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (u *unixConn) parseFDs(oob []byte) error {
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return err
	}
	// Accumulate errors and keep parsing so every received fd is
	// extracted and can be closed, even if one control message is
	// malformed.
	var errs []error
	for _, scm := range scms {
		if scm.Header.Level != unix.SOL_SOCKET || scm.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		raw, err := unix.ParseUnixRights(&scm)
		if err != nil {
			errs = append(errs, fmt.Errorf("parsing unix rights: %w", err))
			continue
		}
		for _, fd := range raw {
			f := os.NewFile(uintptr(fd), "")
			if f == nil {
				errs = append(errs, fmt.Errorf("invalid file descriptor %d received on socket", fd))
				continue
			}
			u.fds.Add(wire.NewFD(f))
		}
	}
	if len(errs) != 0 {
		return errors.Join(errs...)
	}
	return nil
}

type funcReader func([]byte) (int, error)

func (f funcReader) Read(bs []byte) (int, error) { return f(bs) }
