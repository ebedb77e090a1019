package dbus

import (
	"context"

	"github.com/coredbus/dbus/address"
	"github.com/coredbus/dbus/auth"
	"github.com/coredbus/dbus/transport"
)

// Transport sends and receives whole D-Bus messages on an
// authenticated connection.
type Transport = transport.Transport

// Capability is a bitmask of optional connection features.
type Capability = transport.Capability

// CapUnixFD indicates the connection can carry unix file descriptors
// alongside messages.
const CapUnixFD = transport.CapUnixFD

// AllCapabilities is the set of every capability this package knows
// how to negotiate.
const AllCapabilities = transport.AllCapabilities

// Mechanism is a SASL authentication mechanism offered by this
// package.
type Mechanism = auth.Mechanism

const (
	MechExternal       = auth.External
	MechAnonymous      = auth.Anonymous
	MechDBusCookieSHA1 = auth.DBusCookieSHA1
)

// ConnectAuthenticated parses addrs as a semicolon-separated D-Bus
// address list (the same grammar as the DBUS_SESSION_BUS_ADDRESS and
// DBUS_STARTER_ADDRESS environment variables) and tries each candidate
// address in turn until one both accepts a connection and completes
// authentication; a candidate whose authentication fails is skipped
// like one that cannot be reached.
//
// requestedCapabilities restricts which optional transport
// capabilities (e.g. CapUnixFD) may be negotiated; a capability the
// connection would otherwise support is only used if it is also
// present here. Pass AllCapabilities to allow everything this package
// knows how to negotiate.
//
// mechanisms, if non-empty, restricts which SASL mechanisms are
// offered, in preference order; the default is EXTERNAL then
// ANONYMOUS.
//
// On success, ConnectAuthenticated returns the server's guid and a
// Transport ready to send and receive messages. The caller owns the
// Transport and must call its Shutdown method when done.
func ConnectAuthenticated(ctx context.Context, addrs string, requestedCapabilities Capability, mechanisms ...Mechanism) (guid string, t Transport, err error) {
	parsed, err := address.Parse(addrs)
	if err != nil {
		return "", nil, &InvalidAddress{Address: addrs, Reason: err}
	}

	t, guid, err = transport.Connect(ctx, parsed, requestedCapabilities, auth.Options{Mechanisms: mechanisms})
	if err != nil {
		return "", nil, &ConnectFailure{Addresses: addressStrings(parsed), Reason: err}
	}
	return guid, t, nil
}

// Loopback returns a Transport that delivers every message sent on it
// straight back to its own Recv, for exercising client code without a
// real bus.
func Loopback() Transport { return transport.Loopback() }

func addressStrings(addrs []address.Address) []string {
	ret := make([]string, len(addrs))
	for i, a := range addrs {
		ret[i] = a.String()
	}
	return ret
}
