package tiger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantKind   ReplyKind
		wantTokens []string
	}{
		{"bare ack", ":A\r\n", Ack, nil},
		{"error with code", ":N-4\r\n", Err, []string{":N-4"}},
		{"data after ack echo", ":A 1234.5 6789.0\r\n", Data, []string{"1234.5", "6789.0"}},
		{"data without marker", "At 1: X Y\r\n", Data, []string{"At", "1:", "X", "Y"}},
		{"empty line", "\r\n", Data, nil},
		{"garbage keeps raw form", "\x00\x01", Data, []string{"\x00\x01"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reply := DecodeReply([]byte(tc.raw))
			assert.Equal(t, tc.wantKind, reply.Kind)
			assert.Equal(t, tc.wantTokens, reply.Tokens)
			assert.Equal(t, []byte(tc.raw), reply.Raw, "raw wire bytes must be preserved")
		})
	}
}

func TestDecodeReplyTokenOrder(t *testing.T) {
	reply := DecodeReply([]byte("a b  c\td\r"))
	assert.Equal(t, Data, reply.Kind)
	assert.Equal(t, []string{"a", "b", "c", "d"}, reply.Tokens)
}

func TestReplyErrCode(t *testing.T) {
	code, ok := DecodeReply([]byte(":N-4\r\n")).ErrCode()
	assert.True(t, ok)
	assert.Equal(t, -4, code)

	_, ok = DecodeReply([]byte(":A\r\n")).ErrCode()
	assert.False(t, ok)

	_, ok = DecodeReply([]byte(":Nxyz\r\n")).ErrCode()
	assert.False(t, ok)
}

func TestReplyKindString(t *testing.T) {
	assert.Equal(t, "ACK", Ack.String())
	assert.Equal(t, "ERR", Err.String())
	assert.Equal(t, "DATA", Data.String())
}
