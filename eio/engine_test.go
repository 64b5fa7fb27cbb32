package eio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sio-go/socketio-client/wsframe"
)

// TestKeepAliveSendsExactlyOnePing exercises invariant 6 from spec.md §8:
// keepAlive sends exactly one PING when a heartbeat is due, and none when
// it is not.
func TestKeepAliveSendsExactlyOnePing(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	eng := &Engine{
		cfg: Config{Dialect: DialectV3()},
		session: Session{
			PingInterval: 25 * time.Second,
			LastActivity: time.Now().Add(-30 * time.Second),
		},
	}
	eng.enc = wsframe.NewEncoder(client)

	done := make(chan []byte, 1)
	go func() {
		payload, err := readMaskedClientFrame(server)
		if err != nil {
			done <- nil
			return
		}
		done <- payload
	}()

	err := eng.KeepAlive(time.Now())
	require.NoError(t, err)

	select {
	case payload := <-done:
		require.NotNil(t, payload)
		assert.Equal(t, "2", string(payload))
	case <-time.After(time.Second):
		t.Fatal("expected one PING frame, got none")
	}

	// An engine whose lastActivity is now sends nothing: it has no encoder,
	// so any attempted PING would return an error.
	eng2 := &Engine{cfg: Config{Dialect: DialectV3()}, session: Session{PingInterval: 25 * time.Second, LastActivity: time.Now()}}
	require.NoError(t, eng2.KeepAlive(time.Now()))
}

// TestKeepAliveNoopsForEIOv4 matches spec.md §4.2: for EIO>=4 the server
// initiates PING, so the client's keepAlive is a no-op.
func TestKeepAliveNoopsForEIOv4(t *testing.T) {
	eng := &Engine{cfg: Config{Dialect: DialectV4()}, session: Session{PingInterval: time.Millisecond, LastActivity: time.Now().Add(-time.Hour)}}
	require.NoError(t, eng.KeepAlive(time.Now()))
}

// TestReadRawFrameRejectsNonBinaryFrame matches the resolution of the
// BINARY_EVENT-reassembly interleaving open question (spec.md §9): a stray
// control/text frame arriving while attachment frames are expected is a
// protocol error, not attachment data.
func TestReadRawFrameRejectsNonBinaryFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 0x00}) // FIN+PING, unmasked, len 0 (server frame)

	eng := &Engine{cfg: Config{Dialect: DialectV4()}, session: Session{}}
	eng.dec = wsframe.NewDecoder(&buf)

	_, err := eng.ReadRawFrame()
	require.ErrorIs(t, err, ErrUnexpectedDuringAttachments)
}

// TestConnectHandshakeAndUpgrade drives a full Connect() against an
// in-process TCP server that speaks the EIO v3 polling handshake followed
// by a WebSocket upgrade, matching Scenario 5/6's handshake framing from
// spec.md §8.
func TestConnectHandshakeAndUpgrade(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for i := 0; i < 2; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveOneHandshakeRequest(conn)
		}
	}()

	cfg := Config{
		Scheme:  "http",
		Host:    ln.Addr().String(),
		Path:    "/socket.io",
		Dialect: DialectV3(),
		Timeout: 2 * time.Second,
	}
	eng := NewEngine(cfg)
	require.NoError(t, eng.Connect())

	sess := eng.Session()
	assert.Equal(t, "abc123", sess.SID)
	assert.Equal(t, 25*time.Second, sess.PingInterval)
	assert.Equal(t, 5*time.Second, sess.PingTimeout)

	require.NoError(t, eng.Close())
}

// readMaskedClientFrame parses one client-masked RFC 6455 frame the way a
// real server would, independent of wsframe.Decoder (which rejects masked
// frames, since it plays the client role).
func readMaskedClientFrame(r io.Reader) ([]byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	length := uint64(hdr[1] & 0x7F)
	switch length {
	case 126:
		var lb [2]byte
		if _, err := io.ReadFull(r, lb[:]); err != nil {
			return nil, err
		}
		length = uint64(binary.BigEndian.Uint16(lb[:]))
	case 127:
		var lb [8]byte
		if _, err := io.ReadFull(r, lb[:]); err != nil {
			return nil, err
		}
		length = binary.BigEndian.Uint64(lb[:])
	}
	var mask [4]byte
	if _, err := io.ReadFull(r, mask[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	for i := range payload {
		payload[i] ^= mask[i%4]
	}
	return payload, nil
}

func serveOneHandshakeRequest(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)
	req, err := http.ReadRequest(br)
	if err != nil {
		return
	}

	if req.URL.Query().Get("transport") == "polling" {
		packet := EncodePacket(Packet{
			Type: Open,
			Data: []byte(`{"sid":"abc123","upgrades":["websocket"],"pingInterval":25000,"pingTimeout":5000}`),
		})
		body := JoinPollingBody(DialectV3(), [][]byte{packet})
		fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
		time.Sleep(20 * time.Millisecond)
		return
	}

	_, _ = conn.Write([]byte("HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n"))
	// Wait for the client's post-upgrade Engine.IO UPGRADE ("5") frame
	// before tearing the connection down, so Connect()'s write never races
	// the server closing its end.
	_, _ = readMaskedClientFrame(conn)
}
