// Package wire implements the D-Bus type system, value model, and
// message wire format: the pieces that both the root client package
// and the transport/auth packages need, without creating an import
// cycle between them.
package wire

import (
	"fmt"
	"math"
	"strings"
)

// A DictEntry is one key/value pair of a [KindDict] Value.
type DictEntry struct {
	Key Value
	Val Value
}

// A Value is a single D-Bus value of any type: a basic scalar, an
// array, a dict, a struct, or a variant.
//
// The zero Value is invalid; use one of the New* constructors to
// build one.
type Value struct {
	typ Type

	scalar uint64 // byte, bool, intN/uintN, double (bits)
	str    string // string, object path, signature
	fd     FD     // unix-fd payload, when typ.Kind == KindUnixFD
	elems  []Value
	dict   []DictEntry
	inner  *Value // variant payload
}

// TypeOf returns v's type.
func TypeOf(v Value) Type { return v.typ }

// Kind returns v's Kind, a shorthand for TypeOf(v).Kind.
func (v Value) Kind() Kind { return v.typ.Kind }

// NewByte returns a KindByte Value.
func NewByte(b byte) Value { return Value{typ: TypeByte, scalar: uint64(b)} }

// NewBool returns a KindBool Value.
func NewBool(b bool) Value {
	var s uint64
	if b {
		s = 1
	}
	return Value{typ: TypeBool, scalar: s}
}

// NewInt16 returns a KindInt16 Value.
func NewInt16(v int16) Value { return Value{typ: TypeInt16, scalar: uint64(uint16(v))} }

// NewUint16 returns a KindUint16 Value.
func NewUint16(v uint16) Value { return Value{typ: TypeUint16, scalar: uint64(v)} }

// NewInt32 returns a KindInt32 Value.
func NewInt32(v int32) Value { return Value{typ: TypeInt32, scalar: uint64(uint32(v))} }

// NewUint32 returns a KindUint32 Value.
func NewUint32(v uint32) Value { return Value{typ: TypeUint32, scalar: uint64(v)} }

// NewInt64 returns a KindInt64 Value.
func NewInt64(v int64) Value { return Value{typ: TypeInt64, scalar: uint64(v)} }

// NewUint64 returns a KindUint64 Value.
func NewUint64(v uint64) Value { return Value{typ: TypeUint64, scalar: v} }

// NewDouble returns a KindDouble Value.
func NewDouble(v float64) Value { return Value{typ: TypeDouble, scalar: math.Float64bits(v)} }

// NewString returns a KindString Value.
func NewString(s string) Value { return Value{typ: TypeString, str: s} }

// NewObjectPath returns a KindObjectPath Value. NewObjectPath panics
// if p is not a syntactically valid object path; use [ValidObjectPath]
// to check untrusted input first.
func NewObjectPath(p string) Value {
	if !ValidObjectPath(p) {
		panic(fmt.Sprintf("invalid object path %q", p))
	}
	return Value{typ: TypeObjectPath, str: p}
}

// ValidObjectPath reports whether p conforms to the D-Bus object path
// grammar: "/" on its own, or one or more "/"-separated elements,
// each matching [A-Za-z0-9_]+.
func ValidObjectPath(p string) bool {
	if p == "/" {
		return true
	}
	if p == "" || p[0] != '/' || strings.HasSuffix(p, "/") {
		return false
	}
	for _, elem := range strings.Split(p[1:], "/") {
		if elem == "" {
			return false
		}
		for _, r := range elem {
			if !isObjectPathElementRune(r) {
				return false
			}
		}
	}
	return true
}

func isObjectPathElementRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// NewSignatureValue returns a KindSignature Value carrying sig as its
// payload (not to be confused with [Type] itself being a signature).
func NewSignatureValue(sig Signature) Value { return Value{typ: TypeSignature, str: sig.String()} }

// NewUnixFD returns a KindUnixFD Value wrapping fd. The Value takes
// ownership of fd.
func NewUnixFD(fd FD) Value { return Value{typ: TypeUnixFD, fd: fd} }

// NewArray returns a KindArray Value of the given element type,
// containing elems. NewArray panics if any element's type does not
// match elemType.
func NewArray(elemType Type, elems []Value) Value {
	for i, e := range elems {
		if !e.typ.Equal(elemType) {
			panic(fmt.Sprintf("array element %d has type %s, want %s", i, e.typ, elemType))
		}
	}
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{typ: ArrayOf(elemType), elems: cp}
}

// NewByteArray returns a KindArray-of-KindByte Value containing bs.
func NewByteArray(bs []byte) Value {
	elems := make([]Value, len(bs))
	for i, b := range bs {
		elems[i] = NewByte(b)
	}
	return Value{typ: ArrayOf(TypeByte), elems: elems}
}

// NewDict returns a KindDict Value with the given key and value
// types, containing entries. NewDict panics if keyType is not basic,
// or if any entry's key/value type does not match keyType/valType.
func NewDict(keyType, valType Type, entries []DictEntry) Value {
	for i, e := range entries {
		if !e.Key.typ.Equal(keyType) {
			panic(fmt.Sprintf("dict entry %d key has type %s, want %s", i, e.Key.typ, keyType))
		}
		if !e.Val.typ.Equal(valType) {
			panic(fmt.Sprintf("dict entry %d value has type %s, want %s", i, e.Val.typ, valType))
		}
	}
	cp := make([]DictEntry, len(entries))
	copy(cp, entries)
	return Value{typ: DictOf(keyType, valType), dict: cp}
}

// NewStruct returns a KindStruct Value with the given fields.
func NewStruct(fields []Value) Value {
	types := make([]Type, len(fields))
	cp := make([]Value, len(fields))
	for i, f := range fields {
		types[i] = f.typ
		cp[i] = f
	}
	return Value{typ: StructOf(types...), elems: cp}
}

// NewVariant returns a KindVariant Value wrapping inner.
func NewVariant(inner Value) Value {
	return Value{typ: TypeVariant, inner: &inner}
}

// Byte returns v's payload as a byte. It panics if v is not a
// KindByte Value.
func (v Value) Byte() byte { v.mustKind(KindByte); return byte(v.scalar) }

// Bool returns v's payload as a bool. It panics if v is not a
// KindBool Value.
func (v Value) Bool() bool { v.mustKind(KindBool); return v.scalar != 0 }

// Int16 returns v's payload. It panics if v is not a KindInt16 Value.
func (v Value) Int16() int16 { v.mustKind(KindInt16); return int16(uint16(v.scalar)) }

// Uint16 returns v's payload. It panics if v is not a KindUint16
// Value.
func (v Value) Uint16() uint16 { v.mustKind(KindUint16); return uint16(v.scalar) }

// Int32 returns v's payload. It panics if v is not a KindInt32 Value.
func (v Value) Int32() int32 { v.mustKind(KindInt32); return int32(uint32(v.scalar)) }

// Uint32 returns v's payload. It panics if v is not a KindUint32
// Value.
func (v Value) Uint32() uint32 { v.mustKind(KindUint32); return uint32(v.scalar) }

// Int64 returns v's payload. It panics if v is not a KindInt64 Value.
func (v Value) Int64() int64 { v.mustKind(KindInt64); return int64(v.scalar) }

// Uint64 returns v's payload. It panics if v is not a KindUint64
// Value.
func (v Value) Uint64() uint64 { v.mustKind(KindUint64); return v.scalar }

// Double returns v's payload. It panics if v is not a KindDouble
// Value.
func (v Value) Double() float64 { v.mustKind(KindDouble); return math.Float64frombits(v.scalar) }

// Str returns v's payload. It panics if v is not a KindString,
// KindObjectPath or KindSignature Value.
func (v Value) Str() string {
	switch v.typ.Kind {
	case KindString, KindObjectPath, KindSignature:
		return v.str
	default:
		panic(fmt.Sprintf("Str called on %s Value", v.typ))
	}
}

// UnixFD returns v's payload. It panics if v is not a KindUnixFD
// Value.
func (v Value) UnixFD() FD { v.mustKind(KindUnixFD); return v.fd }

// Elements returns the elements of an array or the fields of a
// struct. It panics for any other Kind.
func (v Value) Elements() []Value {
	switch v.typ.Kind {
	case KindArray, KindStruct:
		return v.elems
	default:
		panic(fmt.Sprintf("Elements called on %s Value", v.typ))
	}
}

// Entries returns the entries of a dict. It panics if v is not a
// KindDict Value.
func (v Value) Entries() []DictEntry { v.mustKind(KindDict); return v.dict }

// Variant returns the payload of a variant. It panics if v is not a
// KindVariant Value.
func (v Value) Variant() Value {
	v.mustKind(KindVariant)
	return *v.inner
}

func (v Value) mustKind(k Kind) {
	if v.typ.Kind != k {
		panic(fmt.Sprintf("expected %s Value, got %s", Type{Kind: k}, v.typ))
	}
}

// ContainsFDs reports whether v transitively contains a unix-fd,
// including through variant payloads (unlike [Type.ContainsFDs],
// which cannot see into a variant's dynamic payload).
func (v Value) ContainsFDs() bool {
	switch v.typ.Kind {
	case KindUnixFD:
		return true
	case KindArray, KindStruct:
		for _, e := range v.elems {
			if e.ContainsFDs() {
				return true
			}
		}
		return false
	case KindDict:
		for _, e := range v.dict {
			if e.Key.ContainsFDs() || e.Val.ContainsFDs() {
				return true
			}
		}
		return false
	case KindVariant:
		return v.inner.ContainsFDs()
	default:
		return false
	}
}

// DeepDup returns a copy of v in which every unix-fd leaf has been
// replaced with an independent dup(2)'d descriptor, and every other
// value is structurally copied. Use DeepDup when handing a Value to
// more than one owner, e.g. loopback delivery to several receivers.
func DeepDup(v Value) (Value, error) {
	switch v.typ.Kind {
	case KindUnixFD:
		if !v.fd.Valid() {
			return v, nil
		}
		dup, err := v.fd.Dup()
		if err != nil {
			return Value{}, fmt.Errorf("duplicating unix-fd: %w", err)
		}
		return Value{typ: v.typ, fd: dup}, nil
	case KindArray, KindStruct:
		elems := make([]Value, len(v.elems))
		for i, e := range v.elems {
			d, err := DeepDup(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = d
		}
		return Value{typ: v.typ, elems: elems}, nil
	case KindDict:
		entries := make([]DictEntry, len(v.dict))
		for i, e := range v.dict {
			k, err := DeepDup(e.Key)
			if err != nil {
				return Value{}, err
			}
			val, err := DeepDup(e.Val)
			if err != nil {
				return Value{}, err
			}
			entries[i] = DictEntry{Key: k, Val: val}
		}
		return Value{typ: v.typ, dict: entries}, nil
	case KindVariant:
		d, err := DeepDup(*v.inner)
		if err != nil {
			return Value{}, err
		}
		return Value{typ: v.typ, inner: &d}, nil
	default:
		return v, nil
	}
}
