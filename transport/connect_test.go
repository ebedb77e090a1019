package transport_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coredbus/dbus/address"
	"github.com/coredbus/dbus/auth"
	"github.com/coredbus/dbus/transport"
)

func TestConnectUnknownTransport(t *testing.T) {
	addrs, err := address.Parse("bogus:foo=bar")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, _, err := transport.Connect(ctx, addrs, transport.AllCapabilities, auth.Options{}); err == nil {
		t.Error("Connect with unknown transport succeeded, want error")
	}
}

func TestConnectMissingUnixPath(t *testing.T) {
	addrs, err := address.Parse("unix:")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, _, err := transport.Connect(ctx, addrs, transport.AllCapabilities, auth.Options{}); err == nil {
		t.Error("Connect with unix address missing path succeeded, want error")
	}
}

func TestConnectFallsBackThroughCandidates(t *testing.T) {
	// Both candidates are unreachable; Connect should try both and
	// report having tried 2 addresses rather than stopping at the
	// first failure.
	addrs, err := address.Parse("unix:path=/nonexistent/one;unix:path=/nonexistent/two")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err = transport.Connect(ctx, addrs, transport.AllCapabilities, auth.Options{})
	if err == nil {
		t.Fatal("Connect to nonexistent sockets succeeded, want error")
	}
	if !strings.Contains(err.Error(), "any of 2 candidate address(es)") {
		t.Errorf("Connect error = %q, want it to report 2 candidates tried", err)
	}
}
