package tiger

// Command verbs of the operation layer. Each request type follows the CCA
// template: payload built from the codec primitive matching its argument
// shape, decode driven by the reply kind.
const (
	OpWho     = "WHO"
	OpWhere   = "W"
	OpMove    = "M"
	OpMoveRel = "R"
	OpSpeed   = "S"
	OpHome    = "!"
	OpHalt    = `\`
	OpStatus  = "/"
)

// WhoRequest asks every card on the bus to identify itself. The reply is a
// multi-line report, one block per responding card.
type WhoRequest struct{}

func (WhoRequest) Encode() []byte {
	return FormatLine(OpWho, "", nil)
}

// Decode turns the collected report lines into the discovered topology. A
// lone Err line means the comm card rejected the command; anything else
// parses into zero or more cards. An empty topology is a valid snapshot.
func (WhoRequest) Decode(lines [][]byte) ([]CardInfo, error) {
	if len(lines) == 1 {
		if reply := DecodeReply(lines[0]); reply.Kind == Err {
			return nil, &DecodeError{Op: OpWho, Reply: reply}
		}
	}
	return ParseWhoReport(lines), nil
}

// WhereRequest reads current positions for the given axes.
type WhereRequest struct {
	Addr *int
	Axes []string
}

func (r WhereRequest) Encode() []byte {
	return FormatLine(OpWhere, FormatAxisQueryList(r.Axes), r.Addr)
}

// Decode parses one position token per queried axis, in query order.
func (r WhereRequest) Decode(reply Reply) (map[string]float64, error) {
	return decodePositionalFloats(OpWhere, r.Axes, reply)
}

// MoveRequest commands absolute moves, axis targets as key=value pairs.
type MoveRequest struct {
	Addr    *int
	Targets []KV
}

func (r MoveRequest) Encode() []byte {
	return FormatLine(OpMove, FormatKV(r.Targets), r.Addr)
}

func (r MoveRequest) Decode(reply Reply) error {
	return decodeAck(OpMove, reply)
}

// MoveRelRequest commands relative moves.
type MoveRelRequest struct {
	Addr    *int
	Targets []KV
}

func (r MoveRelRequest) Encode() []byte {
	return FormatLine(OpMoveRel, FormatKV(r.Targets), r.Addr)
}

func (r MoveRelRequest) Decode(reply Reply) error {
	return decodeAck(OpMoveRel, reply)
}

// SpeedSetRequest writes per-axis speed setpoints.
type SpeedSetRequest struct {
	Addr   *int
	Speeds []KV
}

func (r SpeedSetRequest) Encode() []byte {
	return FormatLine(OpSpeed, FormatKV(r.Speeds), r.Addr)
}

func (r SpeedSetRequest) Decode(reply Reply) error {
	return decodeAck(OpSpeed, reply)
}

// SpeedQueryRequest reads per-axis speed setpoints. The controller answers
// with AXIS=value tokens rather than bare positions.
type SpeedQueryRequest struct {
	Addr *int
	Axes []string
}

func (r SpeedQueryRequest) Encode() []byte {
	return FormatLine(OpSpeed, FormatAxisQueryList(r.Axes), r.Addr)
}

func (r SpeedQueryRequest) Decode(reply Reply) (map[string]float64, error) {
	return decodeKeyedFloats(OpSpeed, r.Axes, reply)
}

// HomeRequest homes the given axes.
type HomeRequest struct {
	Addr *int
	Axes []string
}

func (r HomeRequest) Encode() []byte {
	return FormatLine(OpHome, FormatAxisList(r.Axes), r.Addr)
}

func (r HomeRequest) Decode(reply Reply) error {
	return decodeAck(OpHome, reply)
}

// HaltRequest stops all motion immediately.
type HaltRequest struct {
	Addr *int
}

func (r HaltRequest) Encode() []byte {
	return FormatLine(OpHalt, "", r.Addr)
}

func (r HaltRequest) Decode(reply Reply) error {
	return decodeAck(OpHalt, reply)
}

// StatusRequest asks whether any axis is still moving. The reply is a single
// token: B for busy, N for idle.
type StatusRequest struct {
	Addr *int
}

func (r StatusRequest) Encode() []byte {
	return FormatLine(OpStatus, "", r.Addr)
}

func (r StatusRequest) Decode(reply Reply) (bool, error) {
	if reply.Kind == Err {
		return false, &DecodeError{Op: OpStatus, Reply: reply}
	}
	if reply.Kind != Data || len(reply.Tokens) != 1 {
		return false, &ShapeMismatchError{Op: OpStatus, Want: 1, Got: len(reply.Tokens), Reply: reply}
	}
	switch reply.Tokens[0] {
	case "B":
		return true, nil
	case "N":
		return false, nil
	default:
		return false, &ShapeMismatchError{Op: OpStatus, Want: 1, Got: len(reply.Tokens), Reply: reply}
	}
}
