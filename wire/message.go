package wire

import "fmt"

// MsgType identifies the kind of a D-Bus [Message].
type MsgType byte

const (
	MsgInvalid MsgType = iota
	MethodCall
	MethodReturn
	MsgError
	Signal
)

func (t MsgType) String() string {
	switch t {
	case MethodCall:
		return "method_call"
	case MethodReturn:
		return "method_return"
	case MsgError:
		return "error"
	case Signal:
		return "signal"
	default:
		return fmt.Sprintf("msg_type(%d)", t)
	}
}

// Message flag bits, from the D-Bus header.
const (
	FlagNoReplyExpected byte = 1 << iota
	FlagNoAutoStart
	FlagAllowInteractiveAuthorization
)

// Protocol version implemented by this package.
const ProtocolVersion = 1

// Header field codes, as they appear on the wire inside a message's
// header-fields array.
const (
	fieldPath        = 1
	fieldInterface   = 2
	fieldMember      = 3
	fieldErrName     = 4
	fieldReplySerial = 5
	fieldDestination = 6
	fieldSender      = 7
	fieldSignature   = 8
	fieldUnixFDs     = 9
)

// A Message is a single D-Bus message: a method call, a method
// return, an error reply, or a signal.
type Message struct {
	Type  MsgType
	Flags byte
	// Serial is the message's serial number, assigned by the sender.
	// It must be non-zero for any message that has been sent on a
	// connection.
	Serial uint32

	// Path is the target object of a call or the source object of a
	// signal. Required for MethodCall and Signal.
	Path string
	// Interface is the target interface of a call, or the source
	// interface of a signal. Required for Signal, optional otherwise.
	Interface string
	// Member is the method or signal name. Required for MethodCall
	// and Signal.
	Member string
	// ErrName is the error name. Required for MsgError.
	ErrName string
	// ReplySerial is the serial of the message this one replies to.
	// Required for MethodReturn and MsgError.
	ReplySerial uint32
	// Destination is the intended recipient of the message. Optional
	// for every message type.
	Destination string
	// Sender is the unique name of the message's sender. Populated by
	// the bus; any value set by the application is overwritten.
	Sender string

	// Body is the message payload, as a sequence of complete values.
	// Its combined type is the message's body signature.
	Body []Value

	// Unknown carries header fields this package doesn't recognize,
	// keyed by their wire field code. They are round-tripped
	// verbatim but otherwise ignored.
	Unknown map[byte]Value
}

// WantReply reports whether the sender of m expects a reply.
func (m *Message) WantReply() bool {
	return m.Type == MethodCall && m.Flags&FlagNoReplyExpected == 0
}

// CanInteract reports whether the sender of m is willing to wait for
// an interactive authorization prompt.
func (m *Message) CanInteract() bool {
	return m.Type == MethodCall && m.Flags&FlagAllowInteractiveAuthorization != 0
}

// Signature returns the signature describing m's body.
func (m *Message) Signature() Signature {
	sig := make(Signature, len(m.Body))
	for i, v := range m.Body {
		sig[i] = v.typ
	}
	return sig
}

// Valid reports whether m's header fields satisfy the requirements of
// its message Type.
func (m *Message) Valid() error {
	if m.Serial == 0 {
		return fmt.Errorf("invalid message with zero Serial")
	}
	switch m.Type {
	case MsgInvalid:
		return fmt.Errorf("invalid message with Type 0")
	case MethodCall:
		if m.Path == "" {
			return fmt.Errorf("missing required header field Path")
		}
		if m.Member == "" {
			return fmt.Errorf("missing required header field Member")
		}
	case MethodReturn:
		if m.ReplySerial == 0 {
			return fmt.Errorf("missing required header field ReplySerial")
		}
	case MsgError:
		if m.ReplySerial == 0 {
			return fmt.Errorf("missing required header field ReplySerial")
		}
		if m.ErrName == "" {
			return fmt.Errorf("missing required header field ErrName")
		}
	case Signal:
		if m.Path == "" {
			return fmt.Errorf("missing required header field Path")
		}
		if m.Interface == "" {
			return fmt.Errorf("missing required header field Interface")
		}
		if m.Member == "" {
			return fmt.Errorf("missing required header field Member")
		}
	default:
		// Unknown message types are suspect, but the spec requires
		// peers to tolerate them.
	}
	if m.Path != "" && !ValidObjectPath(m.Path) {
		return &InvalidName{Kind: "object path", Name: m.Path, Why: "does not match the object path grammar"}
	}
	return nil
}
