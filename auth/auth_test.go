package auth_test

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/coredbus/dbus/auth"
)

// pipeConn glues a client and a fake server together with in-memory
// pipes, so Authenticate can run against a scripted server without a
// real socket.
type pipeConn struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeConn) Read(bs []byte) (int, error)  { return p.r.Read(bs) }
func (p *pipeConn) Write(bs []byte) (int, error) { return p.w.Write(bs) }

// newFakeServer starts a goroutine implementing server reactions,
// and returns the client-side io.ReadWriter to authenticate over.
func newFakeServer(t *testing.T, react func(r *bufio.Reader, w io.Writer)) io.ReadWriter {
	t.Helper()
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r := bufio.NewReader(serverR)
		react(r, serverW)
	}()
	t.Cleanup(func() {
		serverW.Close()
		clientW.Close()
		wg.Wait()
	})

	return &pipeConn{r: clientR, w: clientW}
}

func readAuthLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeAuthLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\r\n")
	return err
}

func TestAuthenticateExternalSuccess(t *testing.T) {
	conn := newFakeServer(t, func(r *bufio.Reader, w io.Writer) {
		// credential byte
		if _, err := r.ReadByte(); err != nil {
			return
		}
		line, err := readAuthLine(r)
		if err != nil || !strings.HasPrefix(line, "AUTH EXTERNAL ") {
			return
		}
		writeAuthLine(w, "OK 1234deadbeef")
		readAuthLine(r) // BEGIN
	})

	res, err := auth.Authenticate(context.Background(), conn, auth.Options{
		Mechanisms: []auth.Mechanism{auth.External},
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.Guid != "1234deadbeef" {
		t.Errorf("Guid = %q, want 1234deadbeef", res.Guid)
	}
}

func TestAuthenticateFallsBackAfterRejection(t *testing.T) {
	conn := newFakeServer(t, func(r *bufio.Reader, w io.Writer) {
		r.ReadByte()
		line, _ := readAuthLine(r)
		if !strings.HasPrefix(line, "AUTH EXTERNAL ") {
			t.Errorf("unexpected first AUTH line: %q", line)
		}
		writeAuthLine(w, "REJECTED ANONYMOUS")

		line, _ = readAuthLine(r)
		if !strings.HasPrefix(line, "AUTH ANONYMOUS ") {
			t.Errorf("unexpected second AUTH line: %q", line)
		}
		writeAuthLine(w, "OK cafef00d")
		readAuthLine(r)
	})

	res, err := auth.Authenticate(context.Background(), conn, auth.Options{
		Mechanisms: []auth.Mechanism{auth.External, auth.Anonymous},
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.Guid != "cafef00d" {
		t.Errorf("Guid = %q, want cafef00d", res.Guid)
	}
}

func TestAuthenticateAllMechanismsRejected(t *testing.T) {
	conn := newFakeServer(t, func(r *bufio.Reader, w io.Writer) {
		r.ReadByte()
		for i := 0; i < 2; i++ {
			if _, err := readAuthLine(r); err != nil {
				return
			}
			writeAuthLine(w, "REJECTED")
		}
	})

	_, err := auth.Authenticate(context.Background(), conn, auth.Options{
		Mechanisms: []auth.Mechanism{auth.External, auth.Anonymous},
	})
	if err == nil {
		t.Error("Authenticate succeeded, want error after all mechanisms rejected")
	}
}

func TestAuthenticateNegotiatesUnixFD(t *testing.T) {
	conn := newFakeServer(t, func(r *bufio.Reader, w io.Writer) {
		r.ReadByte()
		readAuthLine(r)
		writeAuthLine(w, "OK guid123")
		line, _ := readAuthLine(r)
		if line != "NEGOTIATE_UNIX_FD" {
			t.Errorf("expected NEGOTIATE_UNIX_FD, got %q", line)
		}
		writeAuthLine(w, "AGREE_UNIX_FD")
		readAuthLine(r)
	})

	res, err := auth.Authenticate(context.Background(), conn, auth.Options{
		Mechanisms:      []auth.Mechanism{auth.External},
		NegotiateUnixFD: true,
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !res.UnixFD {
		t.Error("UnixFD = false, want true")
	}
}

func TestAuthenticateDefaultMechanisms(t *testing.T) {
	// With no mechanisms configured, EXTERNAL then ANONYMOUS is tried.
	var seen []string
	conn := newFakeServer(t, func(r *bufio.Reader, w io.Writer) {
		r.ReadByte()
		for {
			line, err := readAuthLine(r)
			if err != nil {
				return
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return
			}
			seen = append(seen, fields[1])
			if fields[1] == "ANONYMOUS" {
				writeAuthLine(w, "OK deadbeef")
				readAuthLine(r)
				return
			}
			writeAuthLine(w, "REJECTED ANONYMOUS")
		}
	})

	_, err := auth.Authenticate(context.Background(), conn, auth.Options{})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	want := []string{string(auth.External), string(auth.Anonymous)}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("tried mechanisms %v, want %v", seen, want)
	}
}

func TestAuthenticateDataRoundTrip(t *testing.T) {
	// The server asks for an extra DATA round trip before deciding,
	// rather than accepting or rejecting the initial response
	// outright.
	conn := newFakeServer(t, func(r *bufio.Reader, w io.Writer) {
		r.ReadByte()
		line, _ := readAuthLine(r)
		if !strings.HasPrefix(line, "AUTH EXTERNAL ") {
			t.Errorf("unexpected first AUTH line: %q", line)
		}
		writeAuthLine(w, "DATA")
		line, _ = readAuthLine(r)
		if line != "DATA" {
			t.Errorf("client DATA response = %q, want empty DATA line", line)
		}
		writeAuthLine(w, "OK feedface")
		readAuthLine(r)
	})

	res, err := auth.Authenticate(context.Background(), conn, auth.Options{
		Mechanisms: []auth.Mechanism{auth.External},
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.Guid != "feedface" {
		t.Errorf("Guid = %q, want feedface", res.Guid)
	}
}

func TestAuthenticateErrorThenCancel(t *testing.T) {
	// The server responds to a malformed exchange with ERROR; the
	// client must CANCEL, then fall back on the REJECTED mechanism
	// list that follows.
	conn := newFakeServer(t, func(r *bufio.Reader, w io.Writer) {
		r.ReadByte()
		line, _ := readAuthLine(r)
		if !strings.HasPrefix(line, "AUTH EXTERNAL ") {
			t.Errorf("unexpected first AUTH line: %q", line)
		}
		writeAuthLine(w, "ERROR unsupported auth mechanism")
		line, _ = readAuthLine(r)
		if line != "CANCEL" {
			t.Errorf("client response to ERROR = %q, want CANCEL", line)
		}
		writeAuthLine(w, "REJECTED ANONYMOUS")

		line, _ = readAuthLine(r)
		if !strings.HasPrefix(line, "AUTH ANONYMOUS ") {
			t.Errorf("unexpected second AUTH line: %q", line)
		}
		writeAuthLine(w, "OK 0ddba11")
		readAuthLine(r)
	})

	res, err := auth.Authenticate(context.Background(), conn, auth.Options{
		Mechanisms: []auth.Mechanism{auth.External, auth.Anonymous},
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.Guid != "0ddba11" {
		t.Errorf("Guid = %q, want 0ddba11", res.Guid)
	}
}
