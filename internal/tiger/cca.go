package tiger

// OpCCA is the card-assist configure verb: per-card settings such as
// joystick polarity per axis, supplied as key=value pairs.
const OpCCA = "CCA"

// CCARequest configures card-assist settings on one card, or on all cards in
// the unaddressed form.
type CCARequest struct {
	Addr     *int
	Settings []KV
}

// Encode renders the command line. It never fails.
func (r CCARequest) Encode() []byte {
	return FormatLine(OpCCA, FormatKV(r.Settings), r.Addr)
}

// Decode accepts the controller's acknowledgement. An Err reply becomes a
// *DecodeError carrying the verb and the full Reply; any payload-bearing
// reply is a shape mismatch.
func (r CCARequest) Decode(reply Reply) error {
	return decodeAck(OpCCA, reply)
}
