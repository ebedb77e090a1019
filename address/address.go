// Package address parses D-Bus server address strings, the
// semicolon-separated list of candidate transport specifications
// found in environment variables like DBUS_SESSION_BUS_ADDRESS.
package address

import (
	"fmt"
	"strings"
)

// An Address is one transport specification from a D-Bus address
// string, e.g. "unix:path=/run/dbus/system_bus_socket".
type Address struct {
	// Transport is the transport name, e.g. "unix", "tcp", or
	// "autolaunch".
	Transport string
	// Params are the transport's key/value parameters, with
	// percent-encoding already decoded.
	Params map[string]string
}

func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(a.Transport)
	sb.WriteByte(':')
	first := true
	for k, v := range a.Params {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(encodeValue(v))
	}
	return sb.String()
}

// Parse parses a D-Bus address string, which is a semicolon-separated
// list of transport specifications tried in order until one succeeds.
func Parse(s string) ([]Address, error) {
	if s == "" {
		return nil, fmt.Errorf("empty address")
	}
	var ret []Address
	for _, part := range strings.Split(s, ";") {
		if part == "" {
			continue
		}
		a, err := parseOne(part)
		if err != nil {
			return nil, fmt.Errorf("parsing address %q: %w", part, err)
		}
		ret = append(ret, a)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("address %q contains no transport specifications", s)
	}
	return ret, nil
}

func parseOne(s string) (Address, error) {
	transport, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Address{}, fmt.Errorf("missing ':' separating transport name from parameters")
	}
	if transport == "" {
		return Address{}, fmt.Errorf("empty transport name")
	}

	params := map[string]string{}
	if rest != "" {
		for _, kv := range strings.Split(rest, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return Address{}, fmt.Errorf("parameter %q missing '='", kv)
			}
			dec, err := decodeValue(v)
			if err != nil {
				return Address{}, fmt.Errorf("parameter %q: %w", k, err)
			}
			params[k] = dec
		}
	}
	return Address{Transport: transport, Params: params}, nil
}

// decodeValue decodes the percent-encoding used by the D-Bus address
// grammar: any byte outside [-0-9A-Za-z_/.\\*] must be represented as
// %XX. This is similar to, but not the same as, URL percent-encoding,
// so net/url's decoder can't be reused as-is.
func decodeValue(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			sb.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated percent-encoding in %q", s)
		}
		hi, ok1 := hexDigit(s[i+1])
		lo, ok2 := hexDigit(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("invalid percent-encoding %q", s[i:i+3])
		}
		sb.WriteByte(hi<<4 | lo)
		i += 2
	}
	return sb.String(), nil
}

func encodeValue(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z',
			c == '-', c == '_', c == '/', c == '.', c == '\\', c == '*':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "%%%02x", c)
		}
	}
	return sb.String()
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
