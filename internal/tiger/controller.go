package tiger

import (
	"fmt"
	"sync"

	"github.com/AllenNeuralDynamics/voxel-sub006/internal/monitoring"
)

// LineExchanger is the transport contract the controller session needs: each
// exchange holds the port's critical section across the write and the
// matching read, so concurrent sessions cannot interleave request/response
// pairs on the shared bus.
type LineExchanger interface {
	Exchange(line []byte) ([]byte, error)
	ExchangeAll(line []byte) ([][]byte, error)
	Close() error
}

// Controller is a session against one Tiger controller: it owns a transport
// and exposes typed operations over it. The last discovery snapshot is kept
// and rebuilt whole on each Discover call, never patched.
type Controller struct {
	tr LineExchanger

	mu    sync.Mutex
	cards []CardInfo
}

// NewController wraps a transport in a controller session.
func NewController(tr LineExchanger) *Controller {
	return &Controller{tr: tr}
}

// exchange runs one single-line operation and decodes the reply.
func (c *Controller) exchange(op string, line []byte) (Reply, error) {
	raw, err := c.tr.Exchange(line)
	if err != nil {
		return Reply{}, err
	}
	if raw == nil {
		return Reply{}, fmt.Errorf("%s: %w", op, ErrNoReply)
	}
	return DecodeReply(raw), nil
}

// Discover runs WHO and rebuilds the topology snapshot from the report.
func (c *Controller) Discover() ([]CardInfo, error) {
	req := WhoRequest{}
	lines, err := c.tr.ExchangeAll(req.Encode())
	if err != nil {
		return nil, err
	}
	cards, err := req.Decode(lines)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("discovered %d card(s) on bus", len(cards))

	c.mu.Lock()
	c.cards = cards
	c.mu.Unlock()
	return cards, nil
}

// Cards returns the last discovery snapshot.
func (c *Controller) Cards() []CardInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CardInfo(nil), c.cards...)
}

// CardAt returns the snapshot entry for a card address.
func (c *Controller) CardAt(addr int) (CardInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, card := range c.cards {
		if card.Addr == addr {
			return card, true
		}
	}
	return CardInfo{}, false
}

// AxisCard returns the snapshot entry for the card hosting the given axis.
func (c *Controller) AxisCard(axis string) (CardInfo, bool) {
	axis = CanonicalAxis(axis)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, card := range c.cards {
		for _, a := range card.Axes {
			if a == axis {
				return card, true
			}
		}
	}
	return CardInfo{}, false
}

// ConfigureCardAssist applies card-assist settings to the addressed card.
func (c *Controller) ConfigureCardAssist(addr int, settings ...KV) error {
	req := CCARequest{Addr: &addr, Settings: settings}
	reply, err := c.exchange(OpCCA, req.Encode())
	if err != nil {
		return err
	}
	return req.Decode(reply)
}

// Where reads current positions for the given axes.
func (c *Controller) Where(axes ...string) (map[string]float64, error) {
	req := WhereRequest{Axes: axes}
	reply, err := c.exchange(OpWhere, req.Encode())
	if err != nil {
		return nil, err
	}
	return req.Decode(reply)
}

// MoveAbs commands absolute moves, targets as axis=position pairs.
func (c *Controller) MoveAbs(targets ...KV) error {
	req := MoveRequest{Targets: targets}
	reply, err := c.exchange(OpMove, req.Encode())
	if err != nil {
		return err
	}
	return req.Decode(reply)
}

// MoveRel commands relative moves.
func (c *Controller) MoveRel(targets ...KV) error {
	req := MoveRelRequest{Targets: targets}
	reply, err := c.exchange(OpMoveRel, req.Encode())
	if err != nil {
		return err
	}
	return req.Decode(reply)
}

// SetSpeed writes per-axis speed setpoints.
func (c *Controller) SetSpeed(speeds ...KV) error {
	req := SpeedSetRequest{Speeds: speeds}
	reply, err := c.exchange(OpSpeed, req.Encode())
	if err != nil {
		return err
	}
	return req.Decode(reply)
}

// Speed reads per-axis speed setpoints.
func (c *Controller) Speed(axes ...string) (map[string]float64, error) {
	req := SpeedQueryRequest{Axes: axes}
	reply, err := c.exchange(OpSpeed, req.Encode())
	if err != nil {
		return nil, err
	}
	return req.Decode(reply)
}

// Home homes the given axes.
func (c *Controller) Home(axes ...string) error {
	req := HomeRequest{Axes: axes}
	reply, err := c.exchange(OpHome, req.Encode())
	if err != nil {
		return err
	}
	return req.Decode(reply)
}

// Halt stops all motion immediately.
func (c *Controller) Halt() error {
	req := HaltRequest{}
	reply, err := c.exchange(OpHalt, req.Encode())
	if err != nil {
		return err
	}
	return req.Decode(reply)
}

// Busy reports whether any axis is still moving.
func (c *Controller) Busy() (bool, error) {
	req := StatusRequest{}
	reply, err := c.exchange(OpStatus, req.Encode())
	if err != nil {
		return false, err
	}
	return req.Decode(reply)
}

// Raw sends an arbitrary command line and returns the raw reply, for verbs
// the typed layer does not cover.
func (c *Controller) Raw(line string) (string, error) {
	raw, err := c.tr.Exchange([]byte(line))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("raw %q: %w", line, ErrNoReply)
	}
	return string(raw), nil
}

// Close releases the underlying transport.
func (c *Controller) Close() error {
	return c.tr.Close()
}
