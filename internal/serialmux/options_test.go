package serialmux

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 115200 {
		t.Errorf("default baud = %d, want 115200", opts.BaudRate)
	}
	if opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v, want 8N1", opts)
	}
}

func TestPortOptionsNormalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"data bits too low", PortOptions{DataBits: 4}},
		{"data bits too high", PortOptions{DataBits: 9}},
		{"bad stop bits", PortOptions{StopBits: 3}},
		{"bad parity", PortOptions{Parity: "M"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.opts.Normalize(); err == nil {
				t.Errorf("Normalize(%+v) succeeded, want error", tc.opts)
			}
		})
	}
}

func TestPortOptionsNormalizeParityAliases(t *testing.T) {
	for _, alias := range []string{"n", "none", "NONE", " N "} {
		opts, err := PortOptions{Parity: alias}.Normalize()
		if err != nil {
			t.Fatalf("Normalize(parity %q): %v", alias, err)
		}
		if opts.Parity != "N" {
			t.Errorf("parity %q normalized to %q, want N", alias, opts.Parity)
		}
	}
}

func TestPortOptionsEqual(t *testing.T) {
	a := PortOptions{}
	b := PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "none"}
	if !a.Equal(b) {
		t.Errorf("defaulted options should equal explicit 115200 8N1")
	}

	c := PortOptions{BaudRate: 9600}
	if a.Equal(c) {
		t.Errorf("different baud rates should not compare equal")
	}

	bad := PortOptions{DataBits: 3}
	if a.Equal(bad) {
		t.Errorf("invalid options should never compare equal")
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, Parity: "even", StopBits: 2}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}
	if mode.BaudRate != 9600 {
		t.Errorf("baud = %d, want 9600", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("parity = %v, want even", mode.Parity)
	}
	if mode.StopBits != serial.StopBits(2) {
		t.Errorf("stop bits = %v, want 2", mode.StopBits)
	}

	if _, err := (PortOptions{DataBits: 12}).SerialMode(); err == nil {
		t.Error("SerialMode with invalid options should fail")
	}
}
