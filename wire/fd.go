package wire

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FD is a unix file descriptor carried as a D-Bus value.
//
// An FD owns the underlying kernel file description: closing it, or
// letting it get garbage collected via the [os.File] finalizer,
// releases the descriptor. Use [FD.Dup] to obtain an independent
// handle before handing an FD to code that might close it out from
// under you.
type FD struct {
	f *os.File
}

// NewFD wraps f as an FD. The returned FD takes ownership of f; the
// caller must not continue to use f directly afterwards.
func NewFD(f *os.File) FD {
	return FD{f}
}

// File returns the underlying *os.File.
func (fd FD) File() *os.File { return fd.f }

// Int returns the raw file descriptor number.
//
// The number is only valid for as long as the FD (or a dup of it)
// remains open, and must not be retained past that point.
func (fd FD) Int() int {
	if fd.f == nil {
		return -1
	}
	return int(fd.f.Fd())
}

// Valid reports whether fd wraps an open file.
func (fd FD) Valid() bool { return fd.f != nil }

// Dup returns a new FD holding a second descriptor, obtained via
// dup(2), for the same underlying kernel file description. The
// original and the copy can be closed independently.
func (fd FD) Dup() (FD, error) {
	if fd.f == nil {
		return FD{}, fmt.Errorf("dup of invalid FD")
	}
	n, err := unix.Dup(int(fd.f.Fd()))
	if err != nil {
		return FD{}, fmt.Errorf("dup: %w", err)
	}
	return FD{os.NewFile(uintptr(n), fd.f.Name())}, nil
}

// Close closes the underlying file.
func (fd FD) Close() error {
	if fd.f == nil {
		return nil
	}
	return fd.f.Close()
}

func (fd FD) String() string {
	if fd.f == nil {
		return "FD(invalid)"
	}
	return fmt.Sprintf("FD(%d)", fd.f.Fd())
}
