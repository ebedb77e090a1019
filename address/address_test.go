package address_test

import (
	"testing"

	"github.com/coredbus/dbus/address"
)

func TestParse(t *testing.T) {
	got, err := address.Parse("unix:path=/run/dbus/system_bus_socket")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d addresses, want 1", len(got))
	}
	if got[0].Transport != "unix" {
		t.Errorf("Transport = %q, want unix", got[0].Transport)
	}
	if got[0].Params["path"] != "/run/dbus/system_bus_socket" {
		t.Errorf("path param = %q", got[0].Params["path"])
	}
}

func TestParseMultipleCandidates(t *testing.T) {
	got, err := address.Parse("unix:path=/a;tcp:host=localhost,port=1234")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d addresses, want 2", len(got))
	}
	if got[1].Transport != "tcp" || got[1].Params["host"] != "localhost" || got[1].Params["port"] != "1234" {
		t.Errorf("second address = %+v", got[1])
	}
}

func TestParsePercentEncoding(t *testing.T) {
	got, err := address.Parse("unix:path=/tmp/a%20b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got[0].Params["path"] != "/tmp/a b" {
		t.Errorf("path = %q, want %q", got[0].Params["path"], "/tmp/a b")
	}
}

func TestParseRoundTrip(t *testing.T) {
	in := "unix:path=/tmp/a b"
	addrs, err := address.Parse("unix:path=/tmp/a%20b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reparsed, err := address.Parse(addrs[0].String())
	if err != nil {
		t.Fatalf("re-parsing String() output: %v", err)
	}
	if reparsed[0].Params["path"] != "/tmp/a b" {
		t.Errorf("round trip of %q produced path %q", in, reparsed[0].Params["path"])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"noColon",
		":missingTransport",
		"unix:path",
		"unix:path=%",
		"unix:path=%zz",
	}
	for _, s := range tests {
		if _, err := address.Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}
