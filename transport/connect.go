package transport

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/coredbus/dbus/address"
	"github.com/coredbus/dbus/auth"
	"github.com/creachadair/mds/queue"
)

// Connect tries each of addrs in turn, dialing and then
// authenticating, and returns a Transport for the first one that
// succeeds along with the server's guid.
//
// requestedCaps filters which transport capabilities are negotiated
// during authentication: a capability a connection would otherwise
// support (e.g. passing unix file descriptors) is only negotiated if
// it is also present in requestedCaps.
//
// An "autolaunch" address expands to the addresses reported by the
// dbus-launch helper, which are pushed onto the front of the
// candidate queue and tried before moving on to the next address in
// addrs.
//
// If every candidate fails, the returned error wraps the first
// failure; later failures are logged and discarded.
func Connect(ctx context.Context, addrs []address.Address, requestedCaps Capability, authOpts auth.Options) (Transport, string, error) {
	q := queue.New[address.Address]()
	for _, a := range addrs {
		q.Add(a)
	}

	var tried []string
	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
			return
		}
		log.Printf("dbus: discarding later candidate failure: %v", err)
	}
	for {
		a, ok := q.Pop()
		if !ok {
			break
		}
		tried = append(tried, a.String())

		if a.Transport == "autolaunch" {
			scope := a.Params["scope"]
			if scope == "" {
				scope = "session"
			}
			more, err := autolaunchAddresses(ctx, scope)
			if err != nil {
				fail(fmt.Errorf("autolaunch: %w", err))
				continue
			}
			expanded, err := address.Parse(joinSemicolons(more))
			if err != nil {
				fail(fmt.Errorf("autolaunch: parsing reported addresses: %w", err))
				continue
			}
			rest := q
			q = queue.New[address.Address]()
			for _, e := range expanded {
				q.Add(e)
			}
			for {
				r, ok := rest.Pop()
				if !ok {
					break
				}
				q.Add(r)
			}
			continue
		}

		conn, caps, err := dial(ctx, a)
		if err != nil {
			fail(err)
			continue
		}

		supportsFDs := conn.supportsFDs() && requestedCaps.Has(CapUnixFD)
		result, err := auth.Authenticate(ctx, conn, auth.Options{
			Mechanisms:      authOpts.Mechanisms,
			NegotiateUnixFD: supportsFDs,
		})
		if err != nil {
			conn.Close()
			fail(fmt.Errorf("authenticating to %s: %w", a, err))
			continue
		}

		if result.UnixFD {
			caps |= CapUnixFD
		}
		return newConnTransport(conn, caps), result.Guid, nil
	}

	if firstErr == nil {
		firstErr = errors.New("no candidate addresses")
	}
	return nil, "", fmt.Errorf("failed to connect to any of %d candidate address(es): %w", len(tried), firstErr)
}

// dial opens a raw, unauthenticated connection for address a.
func dial(ctx context.Context, a address.Address) (rawConn, Capability, error) {
	switch a.Transport {
	case "unix":
		path := a.Params["path"]
		abstract := false
		if path == "" {
			path = a.Params["abstract"]
			abstract = true
		}
		if path == "" {
			return nil, 0, fmt.Errorf("unix address %s missing path or abstract parameter", a)
		}
		conn, err := dialUnix(ctx, path, abstract)
		if err != nil {
			return nil, 0, fmt.Errorf("dialing %s: %w", a, err)
		}
		return conn, 0, nil
	case "tcp":
		host, port := a.Params["host"], a.Params["port"]
		if host == "" || port == "" {
			return nil, 0, fmt.Errorf("tcp address %s missing host or port parameter", a)
		}
		conn, err := dialTCP(ctx, host, port)
		if err != nil {
			return nil, 0, fmt.Errorf("dialing %s: %w", a, err)
		}
		return conn, 0, nil
	default:
		return nil, 0, &UnknownTransport{Transport: a.Transport}
	}
}

func joinSemicolons(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ";"
		}
		out += s
	}
	return out
}
