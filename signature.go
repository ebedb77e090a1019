package dbus

import "github.com/coredbus/dbus/wire"

// Kind identifies a D-Bus basic or container type.
type Kind = wire.Kind

const (
	KindInvalid    = wire.KindInvalid
	KindByte       = wire.KindByte
	KindBool       = wire.KindBool
	KindInt16      = wire.KindInt16
	KindUint16     = wire.KindUint16
	KindInt32      = wire.KindInt32
	KindUint32     = wire.KindUint32
	KindInt64      = wire.KindInt64
	KindUint64     = wire.KindUint64
	KindDouble     = wire.KindDouble
	KindString     = wire.KindString
	KindObjectPath = wire.KindObjectPath
	KindSignature  = wire.KindSignature
	KindUnixFD     = wire.KindUnixFD
	KindArray      = wire.KindArray
	KindDict       = wire.KindDict
	KindStruct     = wire.KindStruct
	KindVariant    = wire.KindVariant
)

// A Type is a single complete D-Bus type: a basic type, or a
// container type built out of other Types.
//
// Type is an alias of [wire.Type]; the two packages share the same
// type so that values produced by the wire codec and the ones
// application code constructs interoperate without conversion.
type Type = wire.Type

var (
	TypeByte       = wire.TypeByte
	TypeBool       = wire.TypeBool
	TypeInt16      = wire.TypeInt16
	TypeUint16     = wire.TypeUint16
	TypeInt32      = wire.TypeInt32
	TypeUint32     = wire.TypeUint32
	TypeInt64      = wire.TypeInt64
	TypeUint64     = wire.TypeUint64
	TypeDouble     = wire.TypeDouble
	TypeString     = wire.TypeString
	TypeObjectPath = wire.TypeObjectPath
	TypeSignature  = wire.TypeSignature
	TypeUnixFD     = wire.TypeUnixFD
	TypeVariant    = wire.TypeVariant
)

// ArrayOf returns the type "array of elem".
func ArrayOf(elem Type) Type { return wire.ArrayOf(elem) }

// DictOf returns the type "dict with key type key and value type
// val". DictOf panics if key is not a basic type.
func DictOf(key, val Type) Type { return wire.DictOf(key, val) }

// StructOf returns the type "struct of fields".
func StructOf(fields ...Type) Type { return wire.StructOf(fields...) }

// A Signature is a sequence of complete D-Bus types, such as the
// types of a message body or the arguments of a method call.
type Signature = wire.Signature

// ParseSignature parses a D-Bus type signature string into a
// Signature.
func ParseSignature(sig string) (Signature, error) { return wire.ParseSignature(sig) }
