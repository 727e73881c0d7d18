package serialmux

import (
	"time"

	"go.bug.st/serial"
)

// NewRealTransport opens a real serial port at the given path using the
// provided options and wraps it in a Transport.
func NewRealTransport(path string, opts PortOptions, timeout time.Duration) (*Transport, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewTransport(port, timeout)
}
