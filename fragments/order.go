package fragments

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// ByteOrder is a byte order that can also identify itself with the
// D-Bus wire byte-order flag byte ('l' or 'B').
type ByteOrder interface {
	byteOrder
	dbusFlag() byte
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

type wrapStd struct {
	byteOrder
}

func (w wrapStd) dbusFlag() byte {
	switch w.byteOrder {
	case binary.BigEndian:
		return 'B'
	case binary.LittleEndian:
		return 'l'
	case binary.NativeEndian:
		if cpu.IsBigEndian {
			return 'B'
		}
		return 'l'
	default:
		panic("unknown ByteOrder, how did you manage to make one of those?")
	}
}

// ByteOrderFromFlag returns the ByteOrder corresponding to a D-Bus
// wire byte-order flag byte ('l' or 'B'), and false if flag isn't one
// of those two bytes.
func ByteOrderFromFlag(flag byte) (ByteOrder, bool) {
	switch flag {
	case 'B':
		return BigEndian, true
	case 'l':
		return LittleEndian, true
	default:
		return nil, false
	}
}

const (
	// MaxArrayLength is the largest permitted length, in bytes, of a
	// marshaled D-Bus array (including a dict, which is an array of
	// struct under the hood).
	MaxArrayLength = 1 << 26
	// MaxMessageLength is the largest permitted total length, in
	// bytes, of a marshaled D-Bus message, header and body combined.
	MaxMessageLength = 1 << 27
)

var (
	BigEndian    = wrapStd{binary.BigEndian}
	LittleEndian = wrapStd{binary.LittleEndian}
	// NativeEndian is the host's byte order. Outgoing messages are
	// always written using NativeEndian; incoming messages are read
	// using whatever order the peer declares in its header.
	NativeEndian = wrapStd{binary.NativeEndian}
)
