// Package tiger implements the command protocol of a Tiger-class multi-axis
// motion controller: the ASCII line codec, the reply decoder, the card/axis
// topology model, and a typed operation layer over them. The package is pure
// protocol; serial I/O lives in internal/serialmux.
package tiger

import (
	"fmt"
	"strconv"
	"strings"
)

// KV is one key=value payload entry. Payload order is significant on the
// wire, so key-value payloads are slices of KV rather than maps.
type KV struct {
	Key   string
	Value interface{}
}

// CanonicalAxis normalizes an axis identifier for the wire: trimmed and
// upper-cased. Axis names are case- and whitespace-insensitive everywhere
// above the transport, so comparisons must go through this first.
func CanonicalAxis(axis string) string {
	return strings.ToUpper(strings.TrimSpace(axis))
}

// FormatLine renders one command line: optional decimal card address, verb,
// optional payload, CR terminator. A nil addr produces the unaddressed
// (broadcast) form.
func FormatLine(verb, payload string, addr *int) []byte {
	var b strings.Builder
	if addr != nil {
		b.WriteString(strconv.Itoa(*addr))
	}
	b.WriteString(verb)
	if payload != "" {
		b.WriteByte(' ')
		b.WriteString(payload)
	}
	b.WriteByte('\r')
	return []byte(b.String())
}

// FormatAxisList renders axes as a space-joined list of canonical letters.
func FormatAxisList(axes []string) string {
	parts := make([]string, 0, len(axes))
	for _, a := range axes {
		parts = append(parts, CanonicalAxis(a))
	}
	return strings.Join(parts, " ")
}

// FormatAxisQueryList renders axes in the read-query form "X? Y?".
func FormatAxisQueryList(axes []string) string {
	parts := make([]string, 0, len(axes))
	for _, a := range axes {
		parts = append(parts, CanonicalAxis(a)+"?")
	}
	return strings.Join(parts, " ")
}

// FormatKV renders key=value pairs space-joined in the given order. Float
// values are rendered with fixed 6-decimal precision so the wire format does
// not depend on default float formatting.
func FormatKV(pairs []KV) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%s", CanonicalAxis(p.Key), formatValue(p.Value)))
	}
	return strings.Join(parts, " ")
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 6, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 6, 32)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
