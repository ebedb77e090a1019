package dbus

import (
	"os"

	"github.com/coredbus/dbus/wire"
)

// A Value is a single D-Bus value of any type: a basic scalar, an
// array, a dict, a struct, or a variant.
//
// Value is an alias of [wire.Value]. The zero Value is invalid; use
// one of the New* constructors to build one.
type Value = wire.Value

// A DictEntry is one key/value pair of a KindDict Value.
type DictEntry = wire.DictEntry

var (
	NewByte         = wire.NewByte
	NewBool         = wire.NewBool
	NewInt16        = wire.NewInt16
	NewUint16       = wire.NewUint16
	NewInt32        = wire.NewInt32
	NewUint32       = wire.NewUint32
	NewInt64        = wire.NewInt64
	NewUint64       = wire.NewUint64
	NewDouble       = wire.NewDouble
	NewString       = wire.NewString
	NewObjectPath   = wire.NewObjectPath
	NewUnixFD       = wire.NewUnixFD
	NewArray        = wire.NewArray
	NewByteArray    = wire.NewByteArray
	NewDict         = wire.NewDict
	NewStruct       = wire.NewStruct
	NewVariant      = wire.NewVariant
	NewSignatureVal = wire.NewSignatureValue
)

// TypeOf returns v's type.
func TypeOf(v Value) Type { return wire.TypeOf(v) }

// DeepDup returns a copy of v in which every unix-fd leaf has been
// replaced with an independent dup(2)'d descriptor, and every other
// value is structurally copied.
func DeepDup(v Value) (Value, error) { return wire.DeepDup(v) }

// FD is a unix file descriptor carried as a D-Bus value.
type FD = wire.FD

// NewFD wraps f as an [FD]. The returned FD takes ownership of f.
func NewFD(f *os.File) FD { return wire.NewFD(f) }
