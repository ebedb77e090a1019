package wire_test

import (
	"os"
	"testing"

	"github.com/coredbus/dbus/wire"
)

func TestValueAccessors(t *testing.T) {
	if got := wire.NewByte(7).Byte(); got != 7 {
		t.Errorf("NewByte(7).Byte() = %d, want 7", got)
	}
	if got := wire.NewBool(true).Bool(); !got {
		t.Error("NewBool(true).Bool() = false")
	}
	if got := wire.NewInt32(-1).Int32(); got != -1 {
		t.Errorf("NewInt32(-1).Int32() = %d, want -1", got)
	}
	if got := wire.NewDouble(1.5).Double(); got != 1.5 {
		t.Errorf("NewDouble(1.5).Double() = %v, want 1.5", got)
	}
	if got := wire.NewString("hi").Str(); got != "hi" {
		t.Errorf("NewString(%q).Str() = %q", "hi", got)
	}
}

func TestValidObjectPath(t *testing.T) {
	valid := []string{"/", "/a", "/a/b_c", "/Foo/Bar42"}
	for _, p := range valid {
		if !wire.ValidObjectPath(p) {
			t.Errorf("ValidObjectPath(%q) = false, want true", p)
		}
	}
	invalid := []string{"", "a", "/a/", "/a//b", "/a.b", "/a-b", "//"}
	for _, p := range invalid {
		if wire.ValidObjectPath(p) {
			t.Errorf("ValidObjectPath(%q) = true, want false", p)
		}
	}
}

func TestNewObjectPathPanicsOnInvalidInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewObjectPath with invalid path did not panic")
		}
	}()
	wire.NewObjectPath("not-a-path")
}

func TestValueAccessorPanicsOnKindMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Byte() on a KindString Value did not panic")
		}
	}()
	wire.NewString("x").Byte()
}

func TestArrayTypeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewArray with mismatched element type did not panic")
		}
	}()
	wire.NewArray(wire.TypeString, []wire.Value{wire.NewByte(1)})
}

func TestContainsFDs(t *testing.T) {
	plain := wire.NewArray(wire.TypeString, []wire.Value{wire.NewString("a")})
	if plain.ContainsFDs() {
		t.Error("plain array ContainsFDs() = true")
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()
	fdVal := wire.NewUnixFD(wire.NewFD(r))

	// A variant payload containing an fd must be detected, unlike the
	// static Type.ContainsFDs check.
	v := wire.NewVariant(fdVal)
	if !v.ContainsFDs() {
		t.Error("variant wrapping an fd ContainsFDs() = false, want true")
	}

	st := wire.NewStruct([]wire.Value{wire.NewString("x"), v})
	if !st.ContainsFDs() {
		t.Error("struct containing a variant-wrapped fd ContainsFDs() = false, want true")
	}
}

func TestDeepDupDuplicatesFDs(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	orig := wire.NewUnixFD(wire.NewFD(r))
	dup, err := wire.DeepDup(orig)
	if err != nil {
		t.Fatalf("DeepDup: %v", err)
	}
	defer dup.UnixFD().Close()

	if dup.UnixFD().Int() == orig.UnixFD().Int() {
		t.Error("DeepDup returned the same fd number, want a distinct dup(2)'d handle")
	}
	origInfo, err := orig.UnixFD().File().Stat()
	if err != nil {
		t.Fatal(err)
	}
	dupInfo, err := dup.UnixFD().File().Stat()
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(origInfo, dupInfo) {
		t.Error("DeepDup's fd is not the same underlying file as the original")
	}
}
