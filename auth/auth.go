// Package auth implements the D-Bus SASL-like authentication
// handshake that precedes the message stream on every new
// connection.
package auth

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mechanism is a supported D-Bus SASL authentication mechanism.
type Mechanism string

const (
	External       Mechanism = "EXTERNAL"
	Anonymous      Mechanism = "ANONYMOUS"
	DBusCookieSHA1 Mechanism = "DBUS_COOKIE_SHA1"
)

// maxLineLength is the longest auth-phase line this package will
// read, matching the D-Bus specification's limit.
const maxLineLength = 1 << 14

// Options configures an authentication attempt.
type Options struct {
	// Mechanisms lists the mechanisms to try, in order. If empty,
	// []Mechanism{External, Anonymous} is used.
	Mechanisms []Mechanism
	// NegotiateUnixFD requests unix file descriptor passing
	// capability. Only meaningful over a unix domain socket
	// transport.
	NegotiateUnixFD bool
}

// Result is the outcome of a successful authentication.
type Result struct {
	// Guid is the server's unique identifier for this connection.
	Guid string
	// UnixFD reports whether the server agreed to unix file
	// descriptor passing.
	UnixFD bool
}

// deadliner is implemented by connections that support cancellation
// via I/O deadlines, e.g. *net.UnixConn and *net.TCPConn.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// Authenticate performs the client side of the D-Bus authentication
// handshake over conn.
//
// It tries opts.Mechanisms in order. If the server REJECTS a
// mechanism, it narrows the remaining candidates to the intersection
// of what's left to try and the mechanism list the server offered in
// its REJECTED reply, and moves on to the next one; if that
// intersection is empty, authentication fails. The first mechanism
// that gets an OK wins.
//
// conn is used for both the handshake and, if conn implements
// deadliner, for honoring ctx's deadline and cancellation: no
// separate goroutine races the I/O, Authenticate just sets and clears
// conn's deadline around blocking reads.
func Authenticate(ctx context.Context, conn io.ReadWriter, opts Options) (Result, error) {
	remaining := opts.Mechanisms
	if len(remaining) == 0 {
		remaining = []Mechanism{External, Anonymous}
	} else {
		remaining = append([]Mechanism(nil), remaining...)
	}

	if dl, ok := conn.(deadliner); ok {
		if deadline, ok := ctx.Deadline(); ok {
			if err := dl.SetDeadline(deadline); err != nil {
				return Result{}, fmt.Errorf("setting auth deadline: %w", err)
			}
			defer dl.SetDeadline(time.Time{})
		}
	}

	h := &handshake{
		r: bufio.NewReaderSize(conn, maxLineLength),
		w: conn,
	}

	if _, err := io.WriteString(h.w, "\x00"); err != nil {
		return Result{}, fmt.Errorf("sending credential byte: %w", err)
	}

	var lastErr error
	for len(remaining) > 0 {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		m := remaining[0]
		guid, err := h.tryMechanism(m)
		if err == nil {
			unixFD := false
			if opts.NegotiateUnixFD {
				unixFD, err = h.negotiateUnixFD()
				if err != nil {
					return Result{}, &Failure{Mechanism: string(m), Reason: fmt.Errorf("negotiating unix-fd: %w", err)}
				}
			}
			if err := h.writeLine("BEGIN"); err != nil {
				return Result{}, &Failure{Mechanism: string(m), Reason: fmt.Errorf("sending BEGIN: %w", err)}
			}
			return Result{Guid: guid, UnixFD: unixFD}, nil
		}

		var rej *rejection
		if errors.As(err, &rej) {
			remaining = intersectMechanisms(remaining[1:], rej.offered)
			lastErr = &Failure{Mechanism: string(m), Reason: err}
			continue
		}
		return Result{}, &Failure{Mechanism: string(m), Reason: err}
	}
	if lastErr == nil {
		lastErr = errors.New("no authentication mechanisms configured")
	}
	return Result{}, lastErr
}

// rejection is returned internally when the server rejects a
// mechanism, carrying the list of mechanisms it says it will accept.
type rejection struct {
	offered []Mechanism
}

func (e *rejection) Error() string {
	return fmt.Sprintf("server rejected authentication, offered mechanisms: %v", e.offered)
}

// intersectMechanisms returns the elements of remaining that also
// appear in offered, preserving remaining's order.
func intersectMechanisms(remaining, offered []Mechanism) []Mechanism {
	if len(offered) == 0 {
		return nil
	}
	ok := make(map[Mechanism]bool, len(offered))
	for _, m := range offered {
		ok[m] = true
	}
	var out []Mechanism
	for _, m := range remaining {
		if ok[m] {
			out = append(out, m)
		}
	}
	return out
}

func parseMechanisms(rejectedLine string) []Mechanism {
	rest := strings.TrimSpace(strings.TrimPrefix(rejectedLine, "REJECTED"))
	if rest == "" {
		return nil
	}
	fields := strings.Fields(rest)
	mechs := make([]Mechanism, len(fields))
	for i, f := range fields {
		mechs[i] = Mechanism(f)
	}
	return mechs
}

// handshake holds the line-oriented I/O state used during the
// authentication exchange. The wire format is CRLF-terminated ASCII
// lines; messages proper only start after BEGIN is sent.
type handshake struct {
	r *bufio.Reader
	w io.Writer
}

func (h *handshake) writeLine(line string) error {
	_, err := io.WriteString(h.w, line+"\r\n")
	return err
}

func (h *handshake) readLine() (string, error) {
	line, err := h.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("server line exceeds %d bytes", maxLineLength)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func (h *handshake) tryMechanism(m Mechanism) (guid string, err error) {
	switch m {
	case External:
		resp := []byte(strconv.Itoa(os.Getuid()))
		return h.exchange(m, resp, simpleResponder)
	case Anonymous:
		resp := []byte("dbus-module")
		return h.exchange(m, resp, simpleResponder)
	case DBusCookieSHA1:
		user, err := currentUsername()
		if err != nil {
			return "", fmt.Errorf("looking up current user: %w", err)
		}
		return h.exchange(m, []byte(user), cookieSHA1Responder)
	default:
		return "", fmt.Errorf("unsupported mechanism %s", m)
	}
}

// dataResponder computes the client's response to a server DATA
// challenge, as part of a mechanism's exchange.
type dataResponder func(challenge []byte) ([]byte, error)

// simpleResponder handles mechanisms (EXTERNAL, ANONYMOUS) whose
// initial response is normally sufficient; if the server asks for
// more data anyway, the client has nothing further to offer and
// replies with an empty DATA command.
func simpleResponder(challenge []byte) ([]byte, error) {
	return nil, nil
}

// exchange sends the initial AUTH command for mechanism m with
// initialResponse, then runs the general SASL exchange to completion,
// calling respond for every DATA challenge the server sends.
func (h *handshake) exchange(m Mechanism, initialResponse []byte, respond dataResponder) (string, error) {
	line := "AUTH " + string(m)
	if len(initialResponse) > 0 {
		line += " " + hex.EncodeToString(initialResponse)
	}
	if err := h.writeLine(line); err != nil {
		return "", err
	}
	return h.runExchange(respond)
}

// runExchange implements the server-driven half of the SASL state
// machine described in the D-Bus specification: it reads server
// replies until OK or a terminal REJECTED, answering DATA challenges
// via respond and answering ERROR with CANCEL.
func (h *handshake) runExchange(respond dataResponder) (string, error) {
	for {
		line, err := h.readLine()
		if err != nil {
			return "", err
		}
		switch {
		case strings.HasPrefix(line, "OK "):
			return strings.TrimSpace(strings.TrimPrefix(line, "OK ")), nil
		case line == "REJECTED" || strings.HasPrefix(line, "REJECTED "):
			return "", &rejection{offered: parseMechanisms(line)}
		case line == "DATA" || strings.HasPrefix(line, "DATA "):
			challenge, err := decodeDataLine(line)
			if err != nil {
				return "", err
			}
			resp, err := respond(challenge)
			if err != nil {
				return "", err
			}
			reply := "DATA"
			if len(resp) > 0 {
				reply += " " + hex.EncodeToString(resp)
			}
			if err := h.writeLine(reply); err != nil {
				return "", err
			}
		case strings.HasPrefix(line, "ERROR"):
			if err := h.writeLine("CANCEL"); err != nil {
				return "", err
			}
			next, err := h.readLine()
			if err != nil {
				return "", err
			}
			if next != "REJECTED" && !strings.HasPrefix(next, "REJECTED ") {
				return "", fmt.Errorf("unexpected server response %q after CANCEL", next)
			}
			return "", &rejection{offered: parseMechanisms(next)}
		default:
			return "", fmt.Errorf("unexpected server response %q", line)
		}
	}
}

func decodeDataLine(line string) ([]byte, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "DATA"))
	if rest == "" {
		return nil, nil
	}
	bs, err := hex.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("decoding server DATA: %w", err)
	}
	return bs, nil
}

func (h *handshake) negotiateUnixFD() (bool, error) {
	if err := h.writeLine("NEGOTIATE_UNIX_FD"); err != nil {
		return false, err
	}
	line, err := h.readLine()
	if err != nil {
		return false, err
	}
	switch {
	case line == "AGREE_UNIX_FD":
		return true, nil
	case strings.HasPrefix(line, "ERROR"):
		return false, nil
	default:
		return false, fmt.Errorf("unexpected server response %q to NEGOTIATE_UNIX_FD", line)
	}
}

// cookieSHA1Responder implements the DBUS_COOKIE_SHA1 mechanism's
// single DATA round trip: the server challenges the client to prove
// it can read a shared secret cookie file from the user's home
// directory.
func cookieSHA1Responder(challenge []byte) ([]byte, error) {
	parts := strings.SplitN(string(challenge), " ", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed DBUS_COOKIE_SHA1 challenge %q", challenge)
	}
	context, cookieID, serverChallenge := parts[0], parts[1], parts[2]

	cookie, err := readCookie(context, cookieID)
	if err != nil {
		return nil, fmt.Errorf("reading cookie: %w", err)
	}

	clientChallenge := hex.EncodeToString(randomBytes(16))
	sum := sha1.Sum([]byte(serverChallenge + ":" + clientChallenge + ":" + cookie))
	resp := clientChallenge + " " + hex.EncodeToString(sum[:])
	return []byte(resp), nil
}

func randomBytes(n int) []byte {
	bs := make([]byte, n)
	if _, err := io.ReadFull(crand.Reader, bs); err != nil {
		// crypto/rand.Reader does not fail in practice on supported
		// platforms; if it somehow does, zero bytes still produce a
		// syntactically valid (if predictable) challenge.
	}
	return bs
}

func currentUsername() (string, error) {
	if u := os.Getenv("USER"); u != "" {
		return u, nil
	}
	return strconv.Itoa(os.Getuid()), nil
}

// readCookie reads the keyring file for the given cookie context and
// returns the secret value associated with cookieID.
//
// The keyring file format is one cookie per line: "<id> <timestamp>
// <cookie>".
func readCookie(context, cookieID string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	path := home + "/.dbus-keyrings/" + context
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		if fields[0] == cookieID {
			return fields[2], nil
		}
	}
	return "", fmt.Errorf("cookie %s not found in keyring %s", cookieID, path)
}
