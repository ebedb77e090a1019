// Package fragments provides low-level encoding and decoding helpers
// used to construct and parse the D-Bus wire format.
//
// The provided [Encoder] and [Decoder] are low level tools: they
// handle alignment, padding and byte order, but do not by themselves
// guarantee that a sequence of calls produces a valid D-Bus message.
// Callers are expected to follow the D-Bus type grammar themselves,
// the same way github.com/coredbus/dbus's value and message codecs
// do.
package fragments
