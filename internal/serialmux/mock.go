package serialmux

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"time"
)

// TestablePort implements Porter with configurable behaviour for testing.
// It provides fine-grained control over reads, writes, errors, and latency.
// A Read against an empty buffer returns (0, nil), matching a real port
// whose read timeout expired.
type TestablePort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadLatency adds a delay to each Read call
	ReadLatency time.Duration

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWrite causes Write to report one byte fewer than requested
	ShortWrite bool

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// WriteCalls records the number of Write calls
	WriteCalls int

	// CloseCalls records the number of Close calls
	CloseCalls int

	// ReadTimeout is the most recent value passed to SetReadTimeout
	ReadTimeout time.Duration
}

// NewTestablePort creates a new TestablePort for testing.
func NewTestablePort() *TestablePort {
	return &TestablePort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// Read reads from the read buffer, optionally simulating latency and errors.
func (p *TestablePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadCalls++

	if p.Closed {
		return 0, errors.New("serial port closed")
	}

	if p.ReadError != nil {
		err := p.ReadError
		p.ReadError = nil
		return 0, err
	}

	if p.ReadLatency > 0 {
		p.mu.Unlock()
		time.Sleep(p.ReadLatency)
		p.mu.Lock()
	}

	if p.ReadBuffer.Len() == 0 {
		// emulate a timed-out read
		return 0, nil
	}
	return p.ReadBuffer.Read(b)
}

// Write writes to the write buffer, optionally simulating errors.
func (p *TestablePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.WriteCalls++

	if p.Closed {
		return 0, errors.New("serial port closed")
	}

	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}

	n, err := p.WriteBuffer.Write(b)
	if err == nil && p.ShortWrite && n > 0 {
		n--
	}
	return n, err
}

// Close marks the port as closed.
func (p *TestablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CloseCalls++
	p.Closed = true
	return p.CloseError
}

// SetReadTimeout implements TimeoutPorter.
func (p *TestablePort) SetReadTimeout(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadTimeout = timeout
	return nil
}

// AddReadData adds data to be returned by subsequent Read calls.
func (p *TestablePort) AddReadData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadBuffer.Write(data)
}

// GetWrittenData returns all data written to the port.
func (p *TestablePort) GetWrittenData() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.WriteBuffer.Bytes()
}

// Reset clears all buffers and resets state.
func (p *TestablePort) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadBuffer.Reset()
	p.WriteBuffer.Reset()
	p.ReadCalls = 0
	p.WriteCalls = 0
	p.CloseCalls = 0
	p.Closed = false
	p.ReadError = nil
	p.WriteError = nil
	p.CloseError = nil
	p.ReadLatency = 0
	p.ShortWrite = false
}

// ScriptedPort implements Porter as a canned half-duplex controller: each
// command line written to it queues the scripted reply for subsequent reads.
// Commands with no script entry get no reply, emulating a card that is not
// on the bus.
type ScriptedPort struct {
	mu      sync.Mutex
	script  map[string]string
	pending bytes.Buffer
	sent    []string
	closed  bool
}

// NewScriptedPort creates a ScriptedPort answering from the given
// command→reply map. Commands are keyed without their CR terminator; replies
// may span multiple lines.
func NewScriptedPort(script map[string]string) *ScriptedPort {
	return &ScriptedPort{script: script}
}

func (p *ScriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("serial port closed")
	}

	cmd := strings.TrimRight(string(b), "\r\n")
	p.sent = append(p.sent, cmd)
	if reply, ok := p.script[cmd]; ok {
		p.pending.WriteString(reply)
		if !strings.HasSuffix(reply, "\r\n") {
			p.pending.WriteString("\r\n")
		}
	}
	return len(b), nil
}

func (p *ScriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("serial port closed")
	}
	if p.pending.Len() == 0 {
		return 0, nil
	}
	return p.pending.Read(b)
}

func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

// Sent returns the command lines written so far, terminators stripped.
func (p *ScriptedPort) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.sent...)
}
