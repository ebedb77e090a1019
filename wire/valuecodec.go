package wire

import (
	"fmt"
	"math"

	"github.com/coredbus/dbus/fragments"
)

// encodeValue appends v's wire representation to e. Any unix-fd
// encountered is appended to *fds and replaced on the wire with its
// index into that slice.
func encodeValue(e *fragments.Encoder, v Value, fds *[]FD) error {
	switch v.typ.Kind {
	case KindByte:
		e.Uint8(v.Byte())
	case KindBool:
		if v.Bool() {
			e.Uint32(1)
		} else {
			e.Uint32(0)
		}
	case KindInt16:
		e.Uint16(uint16(v.Int16()))
	case KindUint16:
		e.Uint16(v.Uint16())
	case KindInt32:
		e.Uint32(uint32(v.Int32()))
	case KindUint32:
		e.Uint32(v.Uint32())
	case KindInt64:
		e.Uint64(uint64(v.Int64()))
	case KindUint64:
		e.Uint64(v.Uint64())
	case KindDouble:
		e.Uint64(math.Float64bits(v.Double()))
	case KindString, KindObjectPath:
		e.String(v.Str())
	case KindSignature:
		e.Signature(v.Str())
	case KindUnixFD:
		idx := uint32(len(*fds))
		*fds = append(*fds, v.UnixFD())
		e.Uint32(idx)
	case KindArray:
		elemType := *v.typ.Elem
		isStruct := elemType.Kind == KindStruct
		elems := v.Elements()
		return e.Array(isStruct, func() error {
			for _, elem := range elems {
				if isStruct {
					el := elem
					if err := e.Struct(func() error { return encodeValue(e, el, fds) }); err != nil {
						return err
					}
					continue
				}
				if err := encodeValue(e, elem, fds); err != nil {
					return err
				}
			}
			return nil
		})
	case KindDict:
		entries := v.Entries()
		return e.Array(true, func() error {
			for _, ent := range entries {
				en := ent
				if err := e.Struct(func() error {
					if err := encodeValue(e, en.Key, fds); err != nil {
						return err
					}
					return encodeValue(e, en.Val, fds)
				}); err != nil {
					return err
				}
			}
			return nil
		})
	case KindStruct:
		fields := v.Elements()
		return e.Struct(func() error {
			for _, f := range fields {
				if err := encodeValue(e, f, fds); err != nil {
					return err
				}
			}
			return nil
		})
	case KindVariant:
		inner := v.Variant()
		e.Signature(Signature{inner.typ}.String())
		return encodeValue(e, inner, fds)
	default:
		return fmt.Errorf("cannot encode value of kind %v", v.typ.Kind)
	}
	return nil
}

// decodeValue reads a value of type t from d. Any unix-fd encountered
// is resolved by looking up its wire index in fds, which must contain
// every fd that arrived out-of-band with the message.
func decodeValue(d *fragments.Decoder, t Type, fds []FD) (Value, error) {
	switch t.Kind {
	case KindByte:
		b, err := d.Uint8()
		return NewByte(b), err
	case KindBool:
		u, err := d.Uint32()
		if err != nil {
			return Value{}, err
		}
		switch u {
		case 0:
			return NewBool(false), nil
		case 1:
			return NewBool(true), nil
		default:
			return Value{}, fmt.Errorf("invalid bool value %d, want 0 or 1", u)
		}
	case KindInt16:
		u, err := d.Uint16()
		return NewInt16(int16(u)), err
	case KindUint16:
		u, err := d.Uint16()
		return NewUint16(u), err
	case KindInt32:
		u, err := d.Uint32()
		return NewInt32(int32(u)), err
	case KindUint32:
		u, err := d.Uint32()
		return NewUint32(u), err
	case KindInt64:
		u, err := d.Uint64()
		return NewInt64(int64(u)), err
	case KindUint64:
		u, err := d.Uint64()
		return NewUint64(u), err
	case KindDouble:
		u, err := d.Uint64()
		return NewDouble(math.Float64frombits(u)), err
	case KindString:
		s, err := d.String()
		return NewString(s), err
	case KindObjectPath:
		s, err := d.String()
		if err != nil {
			return Value{}, err
		}
		if !ValidObjectPath(s) {
			return Value{}, &InvalidName{Kind: "object path", Name: s, Why: "does not match the object path grammar"}
		}
		return Value{typ: TypeObjectPath, str: s}, nil
	case KindSignature:
		s, err := d.Signature()
		return Value{typ: TypeSignature, str: s}, err
	case KindUnixFD:
		idx, err := d.Uint32()
		if err != nil {
			return Value{}, err
		}
		if int(idx) >= len(fds) {
			return Value{}, fmt.Errorf("unix-fd index %d out of range, only %d fds available", idx, len(fds))
		}
		return NewUnixFD(fds[idx]), nil
	case KindArray:
		elemType := *t.Elem
		isStruct := elemType.Kind == KindStruct
		var elems []Value
		_, err := d.Array(isStruct, func(int) error {
			decode := func() error {
				v, err := decodeValue(d, elemType, fds)
				if err != nil {
					return err
				}
				elems = append(elems, v)
				return nil
			}
			if isStruct {
				return d.Struct(decode)
			}
			return decode()
		})
		if err != nil {
			return Value{}, err
		}
		return NewArray(elemType, elems), nil
	case KindDict:
		keyType, valType := *t.Key, *t.Val
		var entries []DictEntry
		_, err := d.Array(true, func(int) error {
			return d.Struct(func() error {
				k, err := decodeValue(d, keyType, fds)
				if err != nil {
					return err
				}
				v, err := decodeValue(d, valType, fds)
				if err != nil {
					return err
				}
				entries = append(entries, DictEntry{Key: k, Val: v})
				return nil
			})
		})
		if err != nil {
			return Value{}, err
		}
		return NewDict(keyType, valType, entries), nil
	case KindStruct:
		var fields []Value
		err := d.Struct(func() error {
			for _, ft := range t.Fields {
				v, err := decodeValue(d, ft, fds)
				if err != nil {
					return err
				}
				fields = append(fields, v)
			}
			return nil
		})
		if err != nil {
			return Value{}, err
		}
		return NewStruct(fields), nil
	case KindVariant:
		sigStr, err := d.Signature()
		if err != nil {
			return Value{}, err
		}
		sig, err := ParseSignature(sigStr)
		if err != nil {
			return Value{}, fmt.Errorf("variant signature: %w", err)
		}
		if !sig.IsSingle() {
			return Value{}, fmt.Errorf("variant signature %q does not describe exactly one complete type", sigStr)
		}
		inner, err := decodeValue(d, sig[0], fds)
		if err != nil {
			return Value{}, err
		}
		return NewVariant(inner), nil
	default:
		return Value{}, fmt.Errorf("cannot decode value of kind %v", t.Kind)
	}
}
