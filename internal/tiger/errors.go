package tiger

import (
	"errors"
	"fmt"
)

// ErrNoReply indicates the controller sent nothing back before the read
// timeout. Callers decide whether to retry.
var ErrNoReply = errors.New("no reply from controller before timeout")

// DecodeError reports that the controller rejected a command with an
// error-kind reply. It carries the operation verb and the full Reply so
// callers can log or retry generically without losing the wire evidence.
type DecodeError struct {
	Op    string
	Reply Reply
}

func (e *DecodeError) Error() string {
	if code, ok := e.Reply.ErrCode(); ok {
		return fmt.Sprintf("%s: controller rejected command with code %d (%q)", e.Op, code, e.Reply.Raw)
	}
	return fmt.Sprintf("%s: controller rejected command (%q)", e.Op, e.Reply.Raw)
}

// ShapeMismatchError reports a Data reply whose token shape did not match
// the operation's expected arity. It is distinct from DecodeError so callers
// can tell "the controller rejected this" apart from "the response did not
// parse".
type ShapeMismatchError struct {
	Op    string
	Want  int
	Got   int
	Reply Reply
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: reply shape mismatch: got %d tokens, want %d (%q)", e.Op, e.Got, e.Want, e.Reply.Raw)
}
