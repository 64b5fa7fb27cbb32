package sio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario1PlainEvent(t *testing.T) {
	text, atts, err := Encode(Packet{
		Op:    Event,
		Event: "hello",
		Args:  []any{[]any{"world"}},
	})
	require.NoError(t, err)
	assert.Empty(t, atts)
	assert.Equal(t, `2["hello",["world"]]`, text)
}

func TestScenario2NamespacedEmit(t *testing.T) {
	text, _, err := Encode(Packet{
		Op:        Event,
		Namespace: "/chat",
		Event:     "msg",
		Args:      []any{map[string]any{"text": "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `2/chat,["msg",{"text":"hi"}]`, text)
}

func TestScenario3BinaryEmit(t *testing.T) {
	text, atts, err := Encode(Packet{
		Op:    Event,
		Event: "test",
		Args:  []any{map[string]any{"file": Bytes([]byte("1234567890"))}},
	})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "1234567890", string(atts[0]))
	assert.Equal(t, `51-["test",{"file":{"_placeholder":true,"num":0}}]`, text)
}

func TestScenario4BinaryReceive(t *testing.T) {
	p, err := Decode([]byte(`51-["ev",{"a":{"_placeholder":true,"num":0},"b":"s"}]`))
	require.NoError(t, err)
	require.Equal(t, BinaryEvent, p.Op)
	require.Equal(t, 1, p.BinCount)

	p, err = Reassemble(p, [][]byte{[]byte("XYZ")})
	require.NoError(t, err)
	assert.Equal(t, Event, p.Op)

	data := p.Args[0].(map[string]any)
	assert.Equal(t, []byte("XYZ"), data["a"])
	assert.Equal(t, "s", data["b"])
}

func TestDecodeRejectsBadOp(t *testing.T) {
	_, err := Decode([]byte("9whatever"))
	require.ErrorIs(t, err, ErrMalformedPacket)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Packet{
		{Op: Event, Namespace: "/", Event: "ping", Args: []any{float64(1), "two"}},
		{Op: Disconnect, Namespace: "/chat"},
		{Op: Ack, Namespace: "/", ID: ptr(int64(7)), Args: []any{"ok"}},
	}

	for _, p := range cases {
		text, _, err := Encode(p)
		require.NoError(t, err)

		decoded, err := Decode([]byte(text))
		require.NoError(t, err)

		assert.Equal(t, normalizeNamespace(p.Namespace), decoded.Namespace)
		assert.Equal(t, p.Op, decoded.Op)
		assert.Equal(t, p.Event, decoded.Event)
	}
}

func normalizeNamespace(nsp string) string {
	if nsp == "" {
		return "/"
	}
	return nsp
}

func TestMatchNamespace(t *testing.T) {
	assert.True(t, MatchNamespace("/", "/"))
	assert.True(t, MatchNamespace("/chat", "/chat"))
	assert.True(t, MatchNamespace("/chat/", "/chat"))
	assert.False(t, MatchNamespace("/chat", "/lobby"))
}

func ptr[T any](v T) *T { return &v }
