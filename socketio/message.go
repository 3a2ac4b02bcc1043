package socketio

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MessageType is the single ASCII digit that opens every Socket.IO 0.9 frame.
type MessageType int

const (
	Disconnect MessageType = iota
	Connect
	Heartbeat
	Message
	JSONMessage
	Event
	Ack
	Error
	Noop
)

func (t MessageType) String() string {
	switch t {
	case Disconnect:
		return "disconnect"
	case Connect:
		return "connect"
	case Heartbeat:
		return "heartbeat"
	case Message:
		return "message"
	case JSONMessage:
		return "json"
	case Event:
		return "event"
	case Ack:
		return "ack"
	case Error:
		return "error"
	case Noop:
		return "noop"
	default:
		return "unknown"
	}
}

// Msg is one decoded Socket.IO 0.9 frame: "type:id:endpoint:data".
type Msg struct {
	Type     MessageType
	ID       string // empty if absent; a trailing "+" requests a server ack
	Endpoint string
	Data     string
}

// wantsAck reports whether the message id carries a trailing "+".
func (m Msg) wantsAck() bool {
	return strings.HasSuffix(m.ID, "+")
}

// Encode serializes m back to the wire grammar in spec §4.1/§6.
func Encode(m Msg) string {
	var b strings.Builder
	b.WriteByte(byte('0' + int(m.Type)))
	b.WriteByte(':')
	b.WriteString(m.ID)
	b.WriteByte(':')
	b.WriteString(m.Endpoint)
	if m.Data != "" {
		b.WriteByte(':')
		b.WriteString(m.Data)
	}
	return b.String()
}

// Decode parses one frame in the "type:id:endpoint:data" grammar.
// Splitting is at most three times on ':', so data may itself contain
// colons. A malformed type digit returns an error; every other field
// tolerates being empty.
func Decode(frame string) (Msg, error) {
	parts := strings.SplitN(frame, ":", 4)
	if len(parts) < 3 {
		return Msg{}, &Fault{Message: "garbage from server: malformed frame", Cause: ErrInvalidMessage, Frame: frame}
	}

	if len(parts[0]) != 1 || parts[0][0] < '0' || parts[0][0] > '8' {
		return Msg{}, &Fault{Message: "garbage from server: bad type digit", Cause: ErrInvalidMessage, Frame: frame}
	}
	typ := MessageType(parts[0][0] - '0')

	m := Msg{Type: typ, ID: parts[1], Endpoint: parts[2]}
	if len(parts) == 4 {
		m.Data = parts[3]
	}
	return m, nil
}

const wrapperSentinel = '�'

// Wrap concatenates payloads into the framed-datagram envelope used by
// transports that cannot preserve message boundaries (e.g. XHR
// long-poll): (U+FFFD length U+FFFD payload)+. A single payload that
// does not itself begin with U+FFFD is returned as-is, unwrapped, which
// Unwrap reads back as one message. Length is measured in
// characters (code points), not bytes, matching the server's own
// counting so both sides agree without a shared byte-length
// assumption across encodings.
func Wrap(payloads []string) string {
	if len(payloads) == 1 && !strings.HasPrefix(payloads[0], string(wrapperSentinel)) {
		return payloads[0]
	}
	var b strings.Builder
	for _, p := range payloads {
		b.WriteRune(wrapperSentinel)
		b.WriteString(strconv.Itoa(utf8.RuneCountInString(p)))
		b.WriteRune(wrapperSentinel)
		b.WriteString(p)
	}
	return b.String()
}

// Unwrap reverses Wrap. A payload with no leading sentinel is treated
// as a single, unwrapped message. A length that does not match the
// number of runes actually present is a decode fault.
func Unwrap(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	if runes[0] != wrapperSentinel {
		return []string{text}, nil
	}

	var out []string
	i := 0
	for i < len(runes) {
		if runes[i] != wrapperSentinel {
			return nil, &Fault{Message: "garbage from server: expected wrapper sentinel", Cause: ErrInvalidMessage, Frame: text}
		}
		i++
		start := i
		for i < len(runes) && runes[i] != wrapperSentinel {
			i++
		}
		if i >= len(runes) {
			return nil, &Fault{Message: "garbage from server: truncated wrapper length", Cause: ErrInvalidMessage, Frame: text}
		}
		n, err := strconv.Atoi(string(runes[start:i]))
		if err != nil || n < 0 {
			return nil, &Fault{Message: "garbage from server: bad wrapper length", Cause: ErrInvalidMessage, Frame: text}
		}
		i++ // skip the closing sentinel before the payload
		if i+n > len(runes) {
			return nil, &Fault{Message: "garbage from server: wrapper length mismatch", Cause: ErrInvalidMessage, Frame: text}
		}
		out = append(out, string(runes[i:i+n]))
		i += n
	}
	return out, nil
}
