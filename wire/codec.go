package wire

import (
	"fmt"
	"io"

	"github.com/coredbus/dbus/fragments"
)

// EncodeMessage marshals msg into its wire representation, using
// order as the byte order of the multi-byte fields. It returns the
// encoded bytes and, in order, the unix file descriptors that must
// accompany the message out-of-band.
//
// EncodeMessage returns an error if msg fails [Message.Valid], or if
// the encoded message would exceed [fragments.MaxMessageLength]
// bytes.
func EncodeMessage(order fragments.ByteOrder, msg *Message) ([]byte, []FD, error) {
	if err := msg.Valid(); err != nil {
		return nil, nil, &EncodeError{Reason: fmt.Errorf("invalid message: %w", err)}
	}

	bodyEnc := &fragments.Encoder{Order: order}
	var fds []FD
	for i, v := range msg.Body {
		if err := encodeValue(bodyEnc, v, &fds); err != nil {
			return nil, nil, &EncodeError{Reason: fmt.Errorf("encoding body value %d: %w", i, err)}
		}
	}
	body := bodyEnc.Out
	sig := msg.Signature()

	type hfield struct {
		code byte
		v    Value
	}
	var fields []hfield
	if msg.Path != "" {
		fields = append(fields, hfield{fieldPath, NewObjectPath(msg.Path)})
	}
	if msg.Interface != "" {
		fields = append(fields, hfield{fieldInterface, NewString(msg.Interface)})
	}
	if msg.Member != "" {
		fields = append(fields, hfield{fieldMember, NewString(msg.Member)})
	}
	if msg.ErrName != "" {
		fields = append(fields, hfield{fieldErrName, NewString(msg.ErrName)})
	}
	if msg.ReplySerial != 0 {
		fields = append(fields, hfield{fieldReplySerial, NewUint32(msg.ReplySerial)})
	}
	if msg.Destination != "" {
		fields = append(fields, hfield{fieldDestination, NewString(msg.Destination)})
	}
	if msg.Sender != "" {
		fields = append(fields, hfield{fieldSender, NewString(msg.Sender)})
	}
	if !sig.IsZero() {
		fields = append(fields, hfield{fieldSignature, Value{typ: TypeSignature, str: sig.String()}})
	}
	if len(fds) > 0 {
		fields = append(fields, hfield{fieldUnixFDs, NewUint32(uint32(len(fds)))})
	}
	for code, v := range msg.Unknown {
		fields = append(fields, hfield{code, v})
	}

	headerEnc := &fragments.Encoder{Order: order}
	headerEnc.ByteOrderFlag()
	headerEnc.Uint8(byte(msg.Type))
	headerEnc.Uint8(msg.Flags)
	headerEnc.Uint8(ProtocolVersion)
	headerEnc.Uint32(uint32(len(body)))
	headerEnc.Uint32(msg.Serial)

	var unused []FD // header field values never carry unix-fds
	err := headerEnc.Array(true, func() error {
		for _, f := range fields {
			fv := f
			if err := headerEnc.Struct(func() error {
				headerEnc.Uint8(fv.code)
				return encodeValue(headerEnc, NewVariant(fv.v), &unused)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, &EncodeError{Reason: fmt.Errorf("encoding header fields: %w", err)}
	}
	headerEnc.Pad(8)

	total := len(headerEnc.Out) + len(body)
	if total > fragments.MaxMessageLength {
		return nil, nil, &EncodeError{Reason: fmt.Errorf("encoded message is %d bytes, exceeds maximum of %d", total, fragments.MaxMessageLength)}
	}

	out := make([]byte, 0, total)
	out = append(out, headerEnc.Out...)
	out = append(out, body...)
	return out, fds, nil
}

// countingReader wraps an io.Reader and tallies the number of bytes
// read through it, so DecodeMessage can validate the header's
// declared lengths against what was actually consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// pad8 returns the number of padding bytes needed to round n up to a
// multiple of 8.
func pad8(n uint32) int64 {
	return int64(8-n%8) % 8
}

// closeFDs closes every fd in fds, discarding any error: on a decode
// failure there's no sensible way to report a close error alongside
// the decode error that caused it.
func closeFDs(fds []FD) {
	for _, fd := range fds {
		fd.Close()
	}
}

// DecodeMessage reads and unmarshals a single message from r.
//
// The message's UNIX_FDS header field, if any, is only known once the
// header has been parsed, partway through the read of r. At that
// point, if the message declares n file descriptors, DecodeMessage
// calls recvFDs(n) exactly once to obtain them; recvFDs is never
// called at all for a message that declares none. Pass a nil recvFDs
// only when the caller knows no incoming message will ever declare
// fds.
//
// DecodeMessage returns an error if recvFDs returns fewer than n fds,
// if the body doesn't match its declared signature, or if the message
// exceeds [fragments.MaxMessageLength] bytes. If decoding fails after
// recvFDs has already handed over file descriptors, DecodeMessage
// closes them before returning.
func DecodeMessage(r io.Reader, recvFDs func(n int) ([]FD, error)) (decoded *Message, err error) {
	counter := &countingReader{r: r}
	d := &fragments.Decoder{Order: fragments.BigEndian, In: counter}

	var fds []FD
	defer func() {
		if err != nil {
			closeFDs(fds)
		}
	}()

	decErr := func(reason error) error {
		return &DecodeError{Reason: reason, Offset: counter.n}
	}

	if err := d.ByteOrderFlag(); err != nil {
		return nil, decErr(fmt.Errorf("reading byte order: %w", err))
	}
	typ, err := d.Uint8()
	if err != nil {
		return nil, decErr(fmt.Errorf("reading message type: %w", err))
	}
	flags, err := d.Uint8()
	if err != nil {
		return nil, decErr(fmt.Errorf("reading flags: %w", err))
	}
	version, err := d.Uint8()
	if err != nil {
		return nil, decErr(fmt.Errorf("reading protocol version: %w", err))
	}
	if version != ProtocolVersion {
		return nil, decErr(fmt.Errorf("unsupported protocol version %d", version))
	}
	bodyLen, err := d.Uint32()
	if err != nil {
		return nil, decErr(fmt.Errorf("reading body length: %w", err))
	}
	serial, err := d.Uint32()
	if err != nil {
		return nil, decErr(fmt.Errorf("reading serial: %w", err))
	}
	fieldsLen, err := d.Uint32()
	if err != nil {
		return nil, decErr(fmt.Errorf("reading header fields length: %w", err))
	}

	totalLen := int64(16) + int64(fieldsLen) + pad8(fieldsLen) + int64(bodyLen)
	if totalLen > fragments.MaxMessageLength {
		return nil, decErr(fmt.Errorf("message size %d exceeds maximum of %d", totalLen, fragments.MaxMessageLength))
	}

	msg := &Message{Type: MsgType(typ), Flags: flags, Serial: serial}

	var sigStr string
	var numFDs uint32
	var unknown map[byte]Value
	var unused []FD // header field values never carry unix-fds

	_, err = d.ArrayWithLength(fieldsLen, true, func(int) error {
		return d.Struct(func() error {
			code, err := d.Uint8()
			if err != nil {
				return err
			}
			v, err := decodeValue(d, TypeVariant, unused)
			if err != nil {
				return fmt.Errorf("header field %d: %w", code, err)
			}
			val := v.Variant()
			switch code {
			case fieldPath:
				msg.Path = val.Str()
			case fieldInterface:
				msg.Interface = val.Str()
			case fieldMember:
				msg.Member = val.Str()
			case fieldErrName:
				msg.ErrName = val.Str()
			case fieldReplySerial:
				msg.ReplySerial = val.Uint32()
			case fieldDestination:
				msg.Destination = val.Str()
			case fieldSender:
				msg.Sender = val.Str()
			case fieldSignature:
				sigStr = val.Str()
			case fieldUnixFDs:
				numFDs = val.Uint32()
			default:
				if unknown == nil {
					unknown = make(map[byte]Value)
				}
				unknown[code] = val
			}
			return nil
		})
	})
	if err != nil {
		return nil, decErr(fmt.Errorf("decoding header fields: %w", err))
	}
	msg.Unknown = unknown

	if err := d.Pad(8); err != nil {
		return nil, decErr(fmt.Errorf("aligning to body: %w", err))
	}

	if numFDs > 0 {
		if recvFDs == nil {
			return nil, decErr(fmt.Errorf("message declares %d unix-fds but no fd source was provided", numFDs))
		}
		fds, err = recvFDs(int(numFDs))
		if err != nil {
			return nil, decErr(fmt.Errorf("receiving unix-fds: %w", err))
		}
		if len(fds) != int(numFDs) {
			return nil, decErr(fmt.Errorf("message declares %d unix-fds but only %d were received", numFDs, len(fds)))
		}
	}

	sig, err := ParseSignature(sigStr)
	if err != nil {
		return nil, decErr(fmt.Errorf("message body signature %q: %w", sigStr, err))
	}

	bodyStart := counter.n
	body := make([]Value, 0, len(sig))
	for i, t := range sig {
		v, err := decodeValue(d, t, fds)
		if err != nil {
			return nil, decErr(fmt.Errorf("decoding body value %d: %w", i, err))
		}
		body = append(body, v)
	}
	if got := counter.n - bodyStart; got != int64(bodyLen) {
		return nil, decErr(fmt.Errorf("body decoded to %d bytes, header declared %d", got, bodyLen))
	}
	msg.Body = body

	if counter.n > fragments.MaxMessageLength {
		return nil, decErr(fmt.Errorf("message is %d bytes, exceeds maximum of %d", counter.n, fragments.MaxMessageLength))
	}

	return msg, nil
}
