package eio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodePacketRoundTrip(t *testing.T) {
	p := Packet{Type: Message, Data: []byte(`42["hello",["world"]]`)}
	raw := EncodePacket(p)
	assert.Equal(t, "442[\"hello\",[\"world\"]]", string(raw))

	got, err := DecodePacket(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodePacketRejectsUnknownOpcode(t *testing.T) {
	_, err := DecodePacket([]byte("9garbage"))
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestSplitPollingBodyEIOv3Scenario(t *testing.T) {
	body := []byte(`96:0{"sid":"...","upgrades":["websocket"],"pingInterval":25000,"pingTimeout":5000}2:40`)
	packets, err := SplitPollingBody(DialectV3(), body)
	require.NoError(t, err)
	require.Len(t, packets, 2)

	open, err := DecodePacket(packets[0])
	require.NoError(t, err)
	assert.Equal(t, Open, open.Type)
	assert.Equal(t, `{"sid":"...","upgrades":["websocket"],"pingInterval":25000,"pingTimeout":5000}`, string(open.Data))

	msg, err := DecodePacket(packets[1])
	require.NoError(t, err)
	assert.Equal(t, Message, msg.Type)
	assert.Equal(t, "0", string(msg.Data))
}

func TestSplitPollingBodyEIOv4SeparatorDialect(t *testing.T) {
	body := []byte("0{\"sid\":\"x\"}\x1e40")
	packets, err := SplitPollingBody(DialectV4(), body)
	require.NoError(t, err)
	require.Len(t, packets, 2)
	assert.Equal(t, `0{"sid":"x"}`, string(packets[0]))
	assert.Equal(t, "40", string(packets[1]))
}

func TestJoinPollingBodyRoundTripsWithSplit(t *testing.T) {
	d := DialectV3()
	packets := [][]byte{[]byte("0{\"sid\":\"x\"}"), []byte("40")}
	body := JoinPollingBody(d, packets)

	got, err := SplitPollingBody(d, body)
	require.NoError(t, err)
	assert.Equal(t, packets, got)
}
