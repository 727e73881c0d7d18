// Package serialmux provides the serial transport for a Tiger-class motion
// controller: a shared, addressed, CR-terminated ASCII line protocol on a
// half-duplex multi-drop bus. The Transport owns the port exclusively and
// offers locked write and read-line primitives plus an exchange helper that
// holds the lock across a full request/response cycle.
package serialmux

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AllenNeuralDynamics/voxel-sub006/internal/monitoring"
)

var (
	// ErrWriteFailed indicates a short write to the serial port.
	ErrWriteFailed = errors.New("failed to write full command to serial port")
	// ErrClosed is returned by operations on a closed Transport.
	ErrClosed = errors.New("serial transport closed")
)

// DefaultReplyTimeout bounds how long a read waits for the controller to
// answer before reporting no data.
const DefaultReplyTimeout = 500 * time.Millisecond

// Transport frames the controller's line protocol over a serial port. Write
// and read primitives each hold the port mutex for their own duration only;
// Exchange and ExchangeAll hold it across the write and the matching read so
// that replies cannot be claimed by a racing caller.
type Transport struct {
	mu   sync.Mutex
	port Porter
	buf  []byte // bytes received but not yet returned as a line
	rbuf []byte

	closeMu sync.Mutex
	closed  bool
}

// NewTransport wraps a serial port. If the port supports read timeouts the
// given timeout is applied; reads then return no data once it expires rather
// than blocking indefinitely.
func NewTransport(port Porter, timeout time.Duration) (*Transport, error) {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	if tp, ok := port.(TimeoutPorter); ok {
		if err := tp.SetReadTimeout(timeout); err != nil {
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}
	return &Transport{
		port: port,
		rbuf: make([]byte, 256),
	}, nil
}

// WriteLine writes one command line to the port, appending the CR terminator
// if absent. The port mutex is held for the write only.
func (t *Transport) WriteLine(line []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeLineLocked(line)
}

func (t *Transport) writeLineLocked(line []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	if !bytes.HasSuffix(line, []byte("\r")) {
		line = append(append([]byte(nil), line...), '\r')
	}
	n, err := t.port.Write(line)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(line) {
		return ErrWriteFailed
	}
	return nil
}

// ReadLine returns the next complete reply line with its terminator stripped,
// or nil with no error when the read timeout expires before a full line
// arrives. Partial data stays buffered for the next call. The port mutex is
// held for the read only.
func (t *Transport) ReadLine() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readLineLocked()
}

func (t *Transport) readLineLocked() ([]byte, error) {
	if t.isClosed() {
		return nil, ErrClosed
	}
	for {
		if line, ok := t.takeLine(); ok {
			return line, nil
		}
		n, err := t.port.Read(t.rbuf)
		if n > 0 {
			t.buf = append(t.buf, t.rbuf[:n]...)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("serial read: %w", err)
		}
		// Zero-byte read without an error means the port's read timeout
		// expired. Absence of data is not an error at this layer.
		return nil, nil
	}
}

// takeLine pops one terminated line off the receive buffer. Consecutive CR/LF
// bytes between lines are collapsed, so CRLF-terminated replies yield no
// phantom empty lines.
func (t *Transport) takeLine() ([]byte, bool) {
	for len(t.buf) > 0 && (t.buf[0] == '\r' || t.buf[0] == '\n') {
		t.buf = t.buf[1:]
	}
	i := bytes.IndexAny(t.buf, "\r\n")
	if i < 0 {
		return nil, false
	}
	line := append([]byte(nil), t.buf[:i]...)
	t.buf = t.buf[i+1:]
	return line, true
}

// Exchange performs one request/response cycle under a single critical
// section: no other caller's write can land between the command and its
// reply. It returns nil when the controller does not answer within the read
// timeout.
func (t *Transport) Exchange(line []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.writeLineLocked(line); err != nil {
		return nil, err
	}
	return t.readLineLocked()
}

// ExchangeAll writes one command and collects reply lines until the read
// timeout expires, for verbs such as WHO that answer with a multi-line
// report. The lock spans the write and every read.
func (t *Transport) ExchangeAll(line []byte) ([][]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.writeLineLocked(line); err != nil {
		return nil, err
	}
	var lines [][]byte
	for {
		reply, err := t.readLineLocked()
		if err != nil {
			return lines, err
		}
		if reply == nil {
			return lines, nil
		}
		lines = append(lines, reply)
	}
}

// Close closes the underlying port. It is idempotent; closing while an
// exchange is in flight may surface an I/O error to that exchange.
func (t *Transport) Close() error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return nil
	}
	t.closed = true
	t.closeMu.Unlock()

	if err := t.port.Close(); err != nil {
		monitoring.Logf("error closing serial port: %v", err)
		return err
	}
	return nil
}

func (t *Transport) isClosed() bool {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	return t.closed
}
