package serialmux

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func newTestTransport(t *testing.T, port Porter) *Transport {
	t.Helper()
	tr, err := NewTransport(port, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	return tr
}

func TestWriteLineAppendsTerminator(t *testing.T) {
	port := NewTestablePort()
	tr := newTestTransport(t, port)

	if err := tr.WriteLine([]byte("1CCA X=1")); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if got, want := port.GetWrittenData(), []byte("1CCA X=1\r"); !bytes.Equal(got, want) {
		t.Errorf("written data = %q, want %q", got, want)
	}

	port.Reset()
	if err := tr.WriteLine([]byte("WHO\r")); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if got := port.GetWrittenData(); !bytes.Equal(got, []byte("WHO\r")) {
		t.Errorf("terminator doubled: wrote %q", got)
	}
}

func TestWriteLineShortWrite(t *testing.T) {
	port := NewTestablePort()
	port.ShortWrite = true
	tr := newTestTransport(t, port)

	if err := tr.WriteLine([]byte("WHO")); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("short write error = %v, want ErrWriteFailed", err)
	}
}

func TestWriteLinePortError(t *testing.T) {
	port := NewTestablePort()
	portErr := errors.New("device unplugged")
	port.WriteError = portErr
	tr := newTestTransport(t, port)

	err := tr.WriteLine([]byte("WHO"))
	if !errors.Is(err, portErr) {
		t.Errorf("WriteLine error = %v, want wrapped %v", err, portErr)
	}

	// a failed write is fatal to the call, not the transport
	if err := tr.WriteLine([]byte("WHO")); err != nil {
		t.Errorf("subsequent WriteLine failed: %v", err)
	}
}

func TestReadLineStripsTerminators(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte(":A X=1234\r\n"))
	tr := newTestTransport(t, port)

	line, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if got, want := string(line), ":A X=1234"; got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestReadLineTimeoutReturnsNoData(t *testing.T) {
	port := NewTestablePort()
	tr := newTestTransport(t, port)

	line, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != nil {
		t.Errorf("expected no data on timeout, got %q", line)
	}
}

func TestReadLineBuffersPartialLines(t *testing.T) {
	port := NewTestablePort()
	tr := newTestTransport(t, port)

	port.AddReadData([]byte(":A 12"))
	line, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != nil {
		t.Fatalf("incomplete line should not be returned, got %q", line)
	}

	port.AddReadData([]byte("34\r\n"))
	line, err = tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if got, want := string(line), ":A 1234"; got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestReadLineIndependentResults(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte(":A\r\n:N-4\r\n"))
	tr := newTestTransport(t, port)

	first, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("first ReadLine: %v", err)
	}
	second, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("second ReadLine: %v", err)
	}
	if string(first) != ":A" || string(second) != ":N-4" {
		t.Errorf("lines = %q, %q; want %q, %q", first, second, ":A", ":N-4")
	}

	// nothing cached from earlier reads: the third read times out clean
	third, err := tr.ReadLine()
	if err != nil || third != nil {
		t.Errorf("third ReadLine = %q, %v; want no data", third, err)
	}
}

func TestReadLinePortError(t *testing.T) {
	port := NewTestablePort()
	portErr := errors.New("read fault")
	port.ReadError = portErr
	tr := newTestTransport(t, port)

	if _, err := tr.ReadLine(); !errors.Is(err, portErr) {
		t.Errorf("ReadLine error = %v, want wrapped %v", err, portErr)
	}
}

func TestExchange(t *testing.T) {
	port := NewScriptedPort(map[string]string{
		"1CCA X=1.000000": ":A",
		"2W X?":           ":N-1",
	})
	tr := newTestTransport(t, port)

	reply, err := tr.Exchange([]byte("1CCA X=1.000000"))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if got, want := string(reply), ":A"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	reply, err = tr.Exchange([]byte("2W X?"))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if got, want := string(reply), ":N-1"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	if sent := port.Sent(); len(sent) != 2 || sent[0] != "1CCA X=1.000000" {
		t.Errorf("unexpected sent commands: %v", sent)
	}
}

func TestExchangeNoReply(t *testing.T) {
	port := NewScriptedPort(nil)
	tr := newTestTransport(t, port)

	reply, err := tr.Exchange([]byte("9WHO"))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if reply != nil {
		t.Errorf("expected no reply, got %q", reply)
	}
}

func TestExchangeAll(t *testing.T) {
	port := NewScriptedPort(map[string]string{
		"WHO": "At 1: X Y\r\nSCAN MODULE\r\nAt 2:\r\n",
	})
	tr := newTestTransport(t, port)

	lines, err := tr.ExchangeAll([]byte("WHO"))
	if err != nil {
		t.Fatalf("ExchangeAll: %v", err)
	}
	want := []string{"At 1: X Y", "SCAN MODULE", "At 2:"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if string(lines[i]) != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	port := NewTestablePort()
	tr := newTestTransport(t, port)

	if err := tr.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if port.CloseCalls != 1 {
		t.Errorf("port closed %d times, want once", port.CloseCalls)
	}

	if err := tr.WriteLine([]byte("WHO")); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteLine after close = %v, want ErrClosed", err)
	}
	if _, err := tr.ReadLine(); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadLine after close = %v, want ErrClosed", err)
	}
}

func TestNewTransportSetsReadTimeout(t *testing.T) {
	port := NewTestablePort()
	if _, err := NewTransport(port, 200*time.Millisecond); err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if port.ReadTimeout != 200*time.Millisecond {
		t.Errorf("read timeout = %v, want 200ms", port.ReadTimeout)
	}

	port.Reset()
	if _, err := NewTransport(port, 0); err != nil {
		t.Fatalf("NewTransport with zero timeout: %v", err)
	}
	if port.ReadTimeout != DefaultReplyTimeout {
		t.Errorf("read timeout = %v, want default %v", port.ReadTimeout, DefaultReplyTimeout)
	}
}

func TestConcurrentExchanges(t *testing.T) {
	port := NewScriptedPort(map[string]string{
		"1W X?": ":A X=100",
		"2W Y?": ":A Y=200",
	})
	tr := newTestTransport(t, port)

	done := make(chan error, 2)
	go func() {
		reply, err := tr.Exchange([]byte("1W X?"))
		if err == nil && string(reply) != ":A X=100" {
			err = errors.New("crossed reply: " + string(reply))
		}
		done <- err
	}()
	go func() {
		reply, err := tr.Exchange([]byte("2W Y?"))
		if err == nil && string(reply) != ":A Y=200" {
			err = errors.New("crossed reply: " + string(reply))
		}
		done <- err
	}()
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent exchange: %v", err)
		}
	}
}
