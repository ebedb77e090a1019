package dbus

import (
	"io"

	"github.com/coredbus/dbus/fragments"
	"github.com/coredbus/dbus/wire"
)

// MsgType identifies the kind of a [Message].
type MsgType = wire.MsgType

const (
	MsgInvalid   = wire.MsgInvalid
	MethodCall   = wire.MethodCall
	MethodReturn = wire.MethodReturn
	MsgError     = wire.MsgError
	Signal       = wire.Signal
)

// Message flag bits.
const (
	FlagNoReplyExpected               = wire.FlagNoReplyExpected
	FlagNoAutoStart                   = wire.FlagNoAutoStart
	FlagAllowInteractiveAuthorization = wire.FlagAllowInteractiveAuthorization
)

// A Message is a single D-Bus message: a method call, a method
// return, an error reply, or a signal.
//
// Message is an alias of [wire.Message].
type Message = wire.Message

// ByteOrder is a byte order that can also identify itself with the
// D-Bus wire byte-order flag byte.
type ByteOrder = fragments.ByteOrder

var (
	BigEndian    = fragments.BigEndian
	LittleEndian = fragments.LittleEndian
	NativeEndian = fragments.NativeEndian
)

// EncodeMessage marshals msg into its wire representation, returning
// the encoded bytes and the unix file descriptors (in order) that
// must accompany it out-of-band.
func EncodeMessage(order ByteOrder, msg *Message) ([]byte, []FD, error) {
	return wire.EncodeMessage(order, msg)
}

// DecodeMessage reads and unmarshals a single message from r. recvFDs
// is called exactly once, with the declared count, if and only if the
// message declares unix file descriptors; pass nil when the caller
// knows no incoming message will ever declare any.
func DecodeMessage(r io.Reader, recvFDs func(n int) ([]FD, error)) (*Message, error) {
	return wire.DecodeMessage(r, recvFDs)
}
