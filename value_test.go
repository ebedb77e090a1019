package dbus_test

import (
	"testing"

	"github.com/coredbus/dbus"
)

func TestValueFacadeConstructors(t *testing.T) {
	v := dbus.NewStruct([]dbus.Value{
		dbus.NewString("a"),
		dbus.NewInt32(1),
		dbus.NewVariant(dbus.NewBool(true)),
	})
	if dbus.TypeOf(v).Kind != dbus.KindStruct {
		t.Errorf("TypeOf(v).Kind = %v, want KindStruct", dbus.TypeOf(v).Kind)
	}
	fields := v.Elements()
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(fields))
	}
	if fields[0].Str() != "a" {
		t.Errorf("fields[0].Str() = %q", fields[0].Str())
	}
	if !fields[2].Variant().Bool() {
		t.Error("fields[2].Variant().Bool() = false")
	}
}

func TestIsVariant(t *testing.T) {
	if dbus.IsVariant(dbus.NewString("a")) {
		t.Error("IsVariant(string) = true")
	}
	if !dbus.IsVariant(dbus.NewVariant(dbus.NewString("a"))) {
		t.Error("IsVariant(variant) = false")
	}
}

func TestParseSignatureFacade(t *testing.T) {
	sig, err := dbus.ParseSignature("a{sv}")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if sig.String() != "a{sv}" {
		t.Errorf("sig.String() = %q", sig.String())
	}
}
