package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_StripsControlBytes(t *testing.T) {
	assert.Equal(t, "ab", Sanitize("a\x01b"))
	assert.Equal(t, "line1line2", Sanitize("line1\nline2"))
	assert.Equal(t, "tabbed", Sanitize("tab\tbed"))
	assert.Equal(t, "", Sanitize("\x00\x1f"))
}

func TestSanitize_KeepsPrintable(t *testing.T) {
	assert.Equal(t, "<script>alert(1)</script>", Sanitize("<script>alert(1)</script>"))
	assert.Equal(t, "delete\x7f", Sanitize("delete\x7f"), "0x7f is outside the stripped range")
}

func TestSanitize_NormalizesNFC(t *testing.T) {
	decomposed := "e\u0301"
	assert.Equal(t, "\u00e9", Sanitize(decomposed))
}

func TestSanitize_Idempotent(t *testing.T) {
	in := "x\x02ye\u0301"
	once := Sanitize(in)
	assert.Equal(t, once, Sanitize(once))
}

type stringer struct{}

func (stringer) String() string { return "str\x03inger" }

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "a\x01b", "ab"},
		{"error", errors.New("boom\x00"), "boom"},
		{"stringer", stringer{}, "stringer"},
		{"int", 42, "42"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeValue(tt.in))
		})
	}
}

func TestCommand_Arg(t *testing.T) {
	c := Command{Name: "tracepoint", Args: []any{"k", 5}}
	assert.Equal(t, "k", c.Arg(0))
	assert.Equal(t, 5, c.Arg(1))
	assert.Nil(t, c.Arg(2))
	assert.Nil(t, c.Arg(-1))
}

func TestNetworkEvent_TransportFailed(t *testing.T) {
	assert.True(t, NetworkEvent{Status: 0}.TransportFailed())
	assert.False(t, NetworkEvent{Status: 404}.TransportFailed())
}
