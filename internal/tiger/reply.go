package tiger

import (
	"strconv"
	"strings"
)

// ReplyKind classifies a response line from the controller.
type ReplyKind int

const (
	// Ack is a bare acknowledgement with no payload.
	Ack ReplyKind = iota
	// Err is a rejected command. The error code, if any, follows the marker.
	Err
	// Data carries a space-tokenized payload.
	Data
)

func (k ReplyKind) String() string {
	switch k {
	case Ack:
		return "ACK"
	case Err:
		return "ERR"
	case Data:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// Wire markers of the controller's reply grammar. Replies open with ":A" when
// the command was accepted and ":N" followed by a numeric code when rejected.
const (
	ackMarker = ":A"
	errMarker = ":N"
)

// Reply is one decoded response line. It is immutable once constructed and
// keeps the raw wire bytes so decode failures never lose evidence.
type Reply struct {
	Kind   ReplyKind
	Raw    []byte
	Tokens []string
}

// DecodeReply classifies a raw reply line. It never fails: a line that fits
// no recognized shape comes back as a Data reply with zero tokens, which the
// operation layer's shape checks then surface to the caller. A leading ":A"
// echo on a payload-bearing line is dropped from the tokens.
func DecodeReply(raw []byte) Reply {
	r := Reply{Raw: append([]byte(nil), raw...)}
	line := strings.TrimRight(string(raw), "\r\n")

	if strings.HasPrefix(line, errMarker) {
		r.Kind = Err
		r.Tokens = strings.Fields(line)
		return r
	}

	tokens := strings.Fields(line)
	if len(tokens) > 0 && tokens[0] == ackMarker {
		tokens = tokens[1:]
		if len(tokens) == 0 {
			r.Kind = Ack
			return r
		}
	}
	r.Kind = Data
	r.Tokens = tokens
	return r
}

// ErrCode extracts the numeric error code from an Err reply, e.g. ":N-4"
// yields -4. The second result is false for non-error replies or unparseable
// codes.
func (r Reply) ErrCode() (int, bool) {
	if r.Kind != Err || len(r.Tokens) == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimPrefix(r.Tokens[0], errMarker))
	if err != nil {
		return 0, false
	}
	return code, true
}
