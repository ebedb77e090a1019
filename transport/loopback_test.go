package transport_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/coredbus/dbus/transport"
	"github.com/coredbus/dbus/wire"
)

func TestLoopbackRoundTrip(t *testing.T) {
	tr := transport.Loopback()
	defer tr.Shutdown()

	msg := &wire.Message{
		Type: wire.Signal, Serial: 1, Path: "/a", Interface: "a.b", Member: "C",
		Body: []wire.Value{wire.NewString("hello")},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := tr.Send(ctx, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := tr.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if got.Member != "C" || got.Body[0].Str() != "hello" {
		t.Errorf("Recv() = %+v", got)
	}
}

func TestLoopbackDupsFDsOnSend(t *testing.T) {
	tr := transport.Loopback()
	defer tr.Shutdown()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	sent := wire.NewUnixFD(wire.NewFD(r))
	msg := &wire.Message{
		Type: wire.Signal, Serial: 1, Path: "/a", Interface: "a.b", Member: "C",
		Body: []wire.Value{sent},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Send(ctx, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := tr.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	defer got.Body[0].UnixFD().Close()

	if got.Body[0].UnixFD().Int() == sent.UnixFD().Int() {
		t.Error("loopback delivered the same fd number, want a deep-dup")
	}
}

func TestLoopbackRecvAfterShutdown(t *testing.T) {
	tr := transport.Loopback()
	tr.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := tr.Recv(ctx); err == nil {
		t.Error("Recv after Shutdown succeeded, want error")
	}
}

func TestLoopbackSendAfterShutdown(t *testing.T) {
	tr := transport.Loopback()
	tr.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg := &wire.Message{Type: wire.Signal, Serial: 1, Path: "/a", Interface: "a.b", Member: "C"}
	if err := tr.Send(ctx, msg); err == nil {
		t.Error("Send after Shutdown succeeded, want error")
	}
}
