package tiger

import (
	"strconv"
	"strings"
)

// Every command verb is a request type with a pure Encode method that never
// fails, plus a Decode method whose signature matches the verb's reply
// shape. Decoding fails only with *DecodeError for an Err reply, or
// *ShapeMismatchError for a Data reply of the wrong arity. The helpers below
// implement the shapes shared across verbs.

// decodeAck accepts a bare acknowledgement and nothing else.
func decodeAck(op string, reply Reply) error {
	switch reply.Kind {
	case Ack:
		return nil
	case Err:
		return &DecodeError{Op: op, Reply: reply}
	default:
		return &ShapeMismatchError{Op: op, Want: 0, Got: len(reply.Tokens), Reply: reply}
	}
}

// decodePositionalFloats parses a Data reply of exactly one float token per
// queried axis, in query order.
func decodePositionalFloats(op string, axes []string, reply Reply) (map[string]float64, error) {
	if reply.Kind == Err {
		return nil, &DecodeError{Op: op, Reply: reply}
	}
	if reply.Kind != Data || len(reply.Tokens) != len(axes) {
		return nil, &ShapeMismatchError{Op: op, Want: len(axes), Got: len(reply.Tokens), Reply: reply}
	}
	out := make(map[string]float64, len(axes))
	for i, axis := range axes {
		v, err := strconv.ParseFloat(reply.Tokens[i], 64)
		if err != nil {
			return nil, &ShapeMismatchError{Op: op, Want: len(axes), Got: len(reply.Tokens), Reply: reply}
		}
		out[CanonicalAxis(axis)] = v
	}
	return out, nil
}

// decodeKeyedFloats parses a Data reply of AXIS=value tokens, one per
// queried axis.
func decodeKeyedFloats(op string, axes []string, reply Reply) (map[string]float64, error) {
	if reply.Kind == Err {
		return nil, &DecodeError{Op: op, Reply: reply}
	}
	if reply.Kind != Data || len(reply.Tokens) != len(axes) {
		return nil, &ShapeMismatchError{Op: op, Want: len(axes), Got: len(reply.Tokens), Reply: reply}
	}
	out := make(map[string]float64, len(axes))
	for _, tok := range reply.Tokens {
		key, val, found := strings.Cut(tok, "=")
		if !found {
			return nil, &ShapeMismatchError{Op: op, Want: len(axes), Got: len(reply.Tokens), Reply: reply}
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, &ShapeMismatchError{Op: op, Want: len(axes), Got: len(reply.Tokens), Reply: reply}
		}
		out[CanonicalAxis(key)] = v
	}
	return out, nil
}
