// Package dbus implements the D-Bus message bus wire protocol:
// connecting to a bus, authenticating, and exchanging messages.
//
// # Values and types
//
// D-Bus values are represented by [Value], a tagged union covering
// every D-Bus basic and container type. A [Value]'s shape is
// described by its [Type], and a sequence of Types forms a
// [Signature], e.g. the signature of a message body. Construct Values
// with the New* functions (NewString, NewArray, NewStruct, and so
// on); read them back with the accessor methods on Value (Str,
// Uint32, Elements, Entries, Variant, ...). Both Value and Type are
// immutable once constructed.
//
// Unix file descriptors are represented by [FD], and travel alongside
// a [Message] out-of-band, the way the D-Bus protocol requires. Use
// [DeepDup] to give a Value's file descriptors to more than one
// owner.
//
// # Messages
//
// A [Message] is a single method call, method return, error reply, or
// signal. [EncodeMessage] and [DecodeMessage] convert a Message to
// and from its wire representation; most callers won't need them
// directly, since [ConnectAuthenticated] returns a [Transport] that
// handles framing automatically.
//
// # Connecting
//
// [ConnectAuthenticated] parses one or more D-Bus server addresses,
// tries each in turn, and performs the SASL-like authentication
// handshake on each one that accepts a connection, until one
// authenticates successfully. The returned
// [Transport] sends and receives whole messages; dispatching replies,
// tracking method calls, and routing signals are left to the caller.
//
// [Loopback] returns a Transport that delivers every message sent on
// it back to its own receiver, useful for testing code against this
// package without a real bus.
package dbus
