package wire

import (
	"fmt"
	"strings"
)

// Kind identifies a D-Bus basic or container type.
type Kind byte

const (
	KindInvalid Kind = iota
	KindByte
	KindBool
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindDouble
	KindString
	KindObjectPath
	KindSignature
	KindUnixFD
	KindArray
	KindDict
	KindStruct
	KindVariant
)

var kindCodes = map[Kind]byte{
	KindByte:       'y',
	KindBool:       'b',
	KindInt16:      'n',
	KindUint16:     'q',
	KindInt32:      'i',
	KindUint32:     'u',
	KindInt64:      'x',
	KindUint64:     't',
	KindDouble:     'd',
	KindString:     's',
	KindObjectPath: 'o',
	KindSignature:  'g',
	KindUnixFD:     'h',
	KindVariant:    'v',
}

var codeKinds = func() map[byte]Kind {
	ret := make(map[byte]Kind, len(kindCodes))
	for k, c := range kindCodes {
		ret[c] = k
	}
	return ret
}()

// basicKinds is the set of Kinds that are valid dict-entry keys.
var basicKinds = map[Kind]bool{
	KindByte: true, KindBool: true, KindInt16: true, KindUint16: true,
	KindInt32: true, KindUint32: true, KindInt64: true, KindUint64: true,
	KindDouble: true, KindString: true, KindObjectPath: true,
	KindSignature: true, KindUnixFD: true,
}

// IsBasic reports whether k is a D-Bus basic type.
func (k Kind) IsBasic() bool { return basicKinds[k] }

// A Type is a single complete D-Bus type: a basic type, or a
// container type built out of other Types.
//
// The zero Type is KindInvalid and represents no type at all; it is
// never a valid member of a [Signature].
type Type struct {
	Kind Kind

	// Elem is the element type of an array (including a byte-array,
	// which is just an array of KindByte).
	Elem *Type
	// Key and Val are the key and value types of a dict. Key is
	// always a basic type.
	Key *Type
	Val *Type
	// Fields are the member types of a struct, in declaration order.
	Fields []Type
}

func basic(k Kind) Type { return Type{Kind: k} }

var (
	TypeByte       = basic(KindByte)
	TypeBool       = basic(KindBool)
	TypeInt16      = basic(KindInt16)
	TypeUint16     = basic(KindUint16)
	TypeInt32      = basic(KindInt32)
	TypeUint32     = basic(KindUint32)
	TypeInt64      = basic(KindInt64)
	TypeUint64     = basic(KindUint64)
	TypeDouble     = basic(KindDouble)
	TypeString     = basic(KindString)
	TypeObjectPath = basic(KindObjectPath)
	TypeSignature  = basic(KindSignature)
	TypeUnixFD     = basic(KindUnixFD)
	TypeVariant    = basic(KindVariant)
)

// ArrayOf returns the type "array of elem".
func ArrayOf(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

// DictOf returns the type "dict with key type key and value type
// val".
//
// DictOf panics if key is not a basic type; the D-Bus wire format
// only allows basic types as dict keys.
func DictOf(key, val Type) Type {
	if !key.Kind.IsBasic() {
		panic(fmt.Sprintf("invalid dict key type %s: dict keys must be a basic type", key))
	}
	return Type{Kind: KindDict, Key: &key, Val: &val}
}

// StructOf returns the type "struct of fields".
func StructOf(fields ...Type) Type {
	return Type{Kind: KindStruct, Fields: fields}
}

// Equal reports whether t and o describe the same D-Bus type.
func (t Type) Equal(o Type) bool {
	return t.String() == o.String()
}

// String returns the D-Bus signature string for t.
func (t Type) String() string {
	var sb strings.Builder
	t.appendString(&sb)
	return sb.String()
}

func (t Type) appendString(sb *strings.Builder) {
	if c, ok := kindCodes[t.Kind]; ok {
		sb.WriteByte(c)
		return
	}
	switch t.Kind {
	case KindArray:
		sb.WriteByte('a')
		t.Elem.appendString(sb)
	case KindDict:
		sb.WriteString("a{")
		t.Key.appendString(sb)
		t.Val.appendString(sb)
		sb.WriteByte('}')
	case KindStruct:
		sb.WriteByte('(')
		for _, f := range t.Fields {
			f.appendString(sb)
		}
		sb.WriteByte(')')
	default:
		panic(fmt.Sprintf("invalid Type with Kind %d", t.Kind))
	}
}

// ContainsFDs reports whether t transitively contains a unix-fd.
//
// For a variant, this only reports whether the static placeholder
// type contains an fd, which it never does: a variant's payload type
// is only known at runtime. Callers working with actual [Value]s
// should use [Value.ContainsFDs] instead, which inspects variant
// payloads.
func (t Type) ContainsFDs() bool {
	switch t.Kind {
	case KindUnixFD:
		return true
	case KindArray:
		return t.Elem.ContainsFDs()
	case KindDict:
		return t.Key.ContainsFDs() || t.Val.ContainsFDs()
	case KindStruct:
		for _, f := range t.Fields {
			if f.ContainsFDs() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// A Signature is a sequence of complete D-Bus types, such as the
// types of a message body or the arguments of a method call. A
// Signature containing exactly one Type also describes the type of a
// single value, e.g. the payload carried by a [KindVariant] Value.
type Signature []Type

// ParseSignature parses a D-Bus type signature string into a
// Signature.
func ParseSignature(sig string) (Signature, error) {
	if len(sig) > 255 {
		return nil, fmt.Errorf("signature %q exceeds maximum length of 255 bytes", sig)
	}
	var ret Signature
	rest := sig
	for rest != "" {
		t, tail, err := parseType(rest, false)
		if err != nil {
			return nil, fmt.Errorf("invalid type signature %q: %w", sig, err)
		}
		ret = append(ret, t)
		rest = tail
	}
	return ret, nil
}

// mustParseSignature is for use with compile-time-constant signatures
// only.
func mustParseSignature(sig string) Signature {
	ret, err := ParseSignature(sig)
	if err != nil {
		panic(err)
	}
	return ret
}

func parseType(sig string, inDict bool) (Type, string, error) {
	if sig == "" {
		return Type{}, "", fmt.Errorf("empty type")
	}
	if k, ok := codeKinds[sig[0]]; ok {
		return basic(k), sig[1:], nil
	}
	switch sig[0] {
	case 'a':
		if len(sig) < 2 {
			return Type{}, "", fmt.Errorf("truncated array type")
		}
		if sig[1] == '{' {
			key, rest, err := parseType(sig[2:], true)
			if err != nil {
				return Type{}, "", fmt.Errorf("dict key type: %w", err)
			}
			if !key.Kind.IsBasic() {
				return Type{}, "", fmt.Errorf("dict key type %s is not a basic type", key)
			}
			val, rest2, err := parseType(rest, false)
			if err != nil {
				return Type{}, "", fmt.Errorf("dict value type: %w", err)
			}
			if rest2 == "" || rest2[0] != '}' {
				return Type{}, "", fmt.Errorf("missing closing } in dict entry type")
			}
			return DictOf(key, val), rest2[1:], nil
		}
		elem, rest, err := parseType(sig[1:], false)
		if err != nil {
			return Type{}, "", fmt.Errorf("array element type: %w", err)
		}
		return ArrayOf(elem), rest, nil
	case '(':
		var fields []Type
		rest := sig[1:]
		for rest != "" && rest[0] != ')' {
			f, tail, err := parseType(rest, false)
			if err != nil {
				return Type{}, "", fmt.Errorf("struct field type: %w", err)
			}
			fields = append(fields, f)
			rest = tail
		}
		if rest == "" {
			return Type{}, "", fmt.Errorf("missing closing ) in struct type")
		}
		if len(fields) == 0 {
			return Type{}, "", fmt.Errorf("struct type must have at least one field")
		}
		return StructOf(fields...), rest[1:], nil
	case '{':
		if !inDict {
			return Type{}, "", fmt.Errorf("dict entry type found outside array")
		}
		return Type{}, "", fmt.Errorf("dict entry type found outside array")
	default:
		return Type{}, "", fmt.Errorf("unknown type code %q", sig[0])
	}
}

// String returns the D-Bus signature string for s.
func (s Signature) String() string {
	var sb strings.Builder
	for _, t := range s {
		t.appendString(&sb)
	}
	return sb.String()
}

// IsZero reports whether s is the empty signature, which describes a
// message with no body.
func (s Signature) IsZero() bool { return len(s) == 0 }

// IsSingle reports whether s describes exactly one complete type.
func (s Signature) IsSingle() bool { return len(s) == 1 }
