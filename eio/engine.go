package eio

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sio-go/socketio-client/httpreq"
	"github.com/sio-go/socketio-client/sio"
	"github.com/sio-go/socketio-client/stream"
	"github.com/sio-go/socketio-client/wsframe"
	"github.com/sio-go/socketio-client/yeast"
)

// minConnectInterval throttles successive handshakes (spec.md §4.2).
const minConnectInterval = 50 * time.Millisecond

// handshakeParams is the OPEN packet's JSON body.
type handshakeParams struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"`
	PingTimeout  int64    `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Engine owns one Engine.IO connection lifecycle: polling handshake,
// optional namespace pre-connect, WebSocket upgrade, and the resulting
// framed byte stream (spec.md §4.2).
type Engine struct {
	cfg Config

	conn *stream.Conn
	enc  *wsframe.Encoder
	dec  *wsframe.Decoder

	session Session
	cookies []string

	lastConnect time.Time
}

// NewEngine builds an unconnected Engine for cfg.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Session returns the current session. Zero-valued before Connect.
func (e *Engine) Session() Session { return e.session }

// Connect runs the handshake, the EIO>=4 pre-upgrade namespace connect, and
// the WebSocket upgrade, in that order. Idempotent if already connected.
func (e *Engine) Connect() error {
	if e.conn != nil && e.dec != nil {
		return nil
	}

	if since := time.Since(e.lastConnect); since > 0 && since < minConnectInterval {
		time.Sleep(minConnectInterval - since)
	}
	e.lastConnect = time.Now()

	if err := e.handshake(); err != nil {
		return err
	}
	if e.cfg.Dialect.PreUpgradeNamespaceConnect {
		if err := e.namespaceConnectOverPolling(); err != nil {
			return err
		}
	}
	return e.upgrade()
}

func (e *Engine) pollingURL(extra url.Values) string {
	q := url.Values{}
	q.Set("EIO", strconv.Itoa(e.cfg.Dialect.Version))
	q.Set("transport", "polling")
	q.Set("t", yeast.Now())
	if e.cfg.UseB64 {
		q.Set("b64", "1")
	}
	if e.session.SID != "" {
		q.Set("sid", e.session.SID)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	return fmt.Sprintf("%s://%s%s/?%s", e.cfg.Scheme, e.cfg.Host, e.cfg.Path, q.Encode())
}

func (e *Engine) dialPolling() (*stream.Conn, error) {
	network := "tcp"
	addr := e.cfg.Host
	var tlsCfg = e.cfg.TLSConfig
	if e.cfg.Scheme != "https" {
		tlsCfg = nil
	}
	conn, err := stream.Dial(network, addr, e.cfg.Timeout, tlsCfg)
	if err != nil {
		return nil, err
	}
	conn.Persistent = e.cfg.Persistent
	return conn, nil
}

func (e *Engine) pollRequest(method, rawURL string, body []byte) (*httpreq.Response, error) {
	conn, err := e.dialPolling()
	if err != nil {
		return nil, fmt.Errorf("eio: %w: %v", ErrServerConnectionFailure, err)
	}
	defer conn.Release()

	header := e.cfg.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	for _, c := range e.cookies {
		header.Add("Cookie", c)
	}

	resp, err := httpreq.Do(conn, &httpreq.Request{
		Method: method,
		URL:    rawURL,
		Header: header,
		Body:   body,
	}, false)
	if err != nil {
		return nil, fmt.Errorf("eio: %w: %v", ErrServerConnectionFailure, err)
	}
	e.captureCookies(resp.Header)
	return resp, nil
}

func (e *Engine) captureCookies(h http.Header) {
	for _, c := range h.Values("Set-Cookie") {
		e.cookies = append(e.cookies, c)
	}
}

func (e *Engine) handshake() error {
	resp, err := e.pollRequest(http.MethodGet, e.pollingURL(nil), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("eio: %w: handshake status %d", ErrServerConnectionFailure, resp.StatusCode)
	}

	packets, err := SplitPollingBody(e.cfg.Dialect, resp.Body)
	if err != nil {
		return err
	}
	if len(packets) == 0 {
		return fmt.Errorf("eio: %w: empty handshake body", ErrServerConnectionFailure)
	}

	open, err := DecodePacket(packets[0])
	if err != nil {
		return err
	}
	if open.Type != Open {
		return fmt.Errorf("eio: %w: first handshake packet is not OPEN", ErrServerConnectionFailure)
	}

	var params handshakeParams
	if err := json.Unmarshal(open.Data, &params); err != nil {
		return fmt.Errorf("eio: %w: malformed handshake JSON: %v", ErrServerConnectionFailure, err)
	}
	if params.SID == "" {
		return fmt.Errorf("eio: %w: empty sid", ErrServerConnectionFailure)
	}
	if !containsString(params.Upgrades, "websocket") {
		return ErrUnsupportedTransport
	}

	now := time.Now()
	e.session = Session{
		SID:          params.SID,
		PingInterval: time.Duration(params.PingInterval) * time.Millisecond,
		PingTimeout:  time.Duration(params.PingTimeout) * time.Millisecond,
		Upgrades:     params.Upgrades,
		MaxPayload:   params.MaxPayload,
		LastActivity: now,
	}
	return nil
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// namespaceConnectOverPolling performs the EIO>=4 pre-upgrade CONNECT
// handshake described in spec.md §4.2/§4.3: POST "40<nsp>,<auth?>", then GET
// to read back the server's acknowledgment. The namespace segment is always
// emitted, including for the default "/" namespace (spec.md §4.3: "for
// EIO >= 4 CONNECT the namespace is always emitted"), sharing the same
// ForceNamespace rule Client.Of uses for the post-upgrade case.
func (e *Engine) namespaceConnectOverPolling() error {
	body, _, err := sio.Encode(sio.Packet{Op: sio.Connect, Namespace: e.cfg.Namespace, ForceNamespace: true, Data: e.cfg.Auth})
	if err != nil {
		return fmt.Errorf("eio: %w: invalid auth payload: %v", ErrServerConnectionFailure, err)
	}

	packet := EncodePacket(Packet{Type: Message, Data: []byte(body)})
	postResp, err := e.pollRequest(http.MethodPost, e.pollingURL(nil), JoinPollingBody(e.cfg.Dialect, [][]byte{packet}))
	if err != nil {
		return err
	}
	if postResp.StatusCode != http.StatusOK {
		return fmt.Errorf("eio: %w: namespace connect POST status %d", ErrServerConnectionFailure, postResp.StatusCode)
	}

	getResp, err := e.pollRequest(http.MethodGet, e.pollingURL(nil), nil)
	if err != nil {
		return err
	}
	if getResp.StatusCode != http.StatusOK {
		return fmt.Errorf("eio: %w: namespace connect GET status %d", ErrServerConnectionFailure, getResp.StatusCode)
	}

	packets, err := SplitPollingBody(e.cfg.Dialect, getResp.Body)
	if err != nil {
		return err
	}
	for _, raw := range packets {
		pkt, err := DecodePacket(raw)
		if err != nil {
			return err
		}
		if pkt.Type != Message || len(pkt.Data) == 0 {
			continue
		}
		switch pkt.Data[0] {
		case '4': // Socket.IO CONNECT_ERROR
			return fmt.Errorf("eio: %w: namespace connect rejected: %s", ErrServerConnectionFailure, string(pkt.Data[1:]))
		case '0': // Socket.IO CONNECT ack
			return nil
		}
	}
	return fmt.Errorf("eio: %w: namespace connect: no acknowledgment", ErrServerConnectionFailure)
}

func (e *Engine) webSocketKey() (string, error) {
	if e.cfg.Dialect.LegacyWebSocketKey {
		sum := sha1.Sum([]byte(fmt.Sprintf("%d-%d", time.Now().UnixNano(), len(e.cookies))))
		return base64.StdEncoding.EncodeToString(sum[:16]), nil
	}
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// upgrade performs the WebSocket upgrade request and takes ownership of the
// resulting connection for all subsequent traffic.
func (e *Engine) upgrade() error {
	conn, err := e.dialPolling()
	if err != nil {
		return fmt.Errorf("eio: %w: %v", ErrServerConnectionFailure, err)
	}

	key, err := e.webSocketKey()
	if err != nil {
		conn.Discard()
		return err
	}

	header := e.cfg.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Upgrade", "websocket")
	header.Set("Connection", "Upgrade")
	header.Set("Sec-WebSocket-Key", key)
	header.Set("Sec-WebSocket-Version", "13")
	origin := e.cfg.Origin
	if origin == "" {
		origin = "*"
	}
	header.Set("Origin", origin)
	for _, c := range e.cookies {
		header.Add("Cookie", c)
	}

	q := url.Values{}
	q.Set("EIO", strconv.Itoa(e.cfg.Dialect.Version))
	q.Set("transport", "websocket")
	q.Set("t", yeast.Now())
	q.Set("sid", e.session.SID)
	rawURL := fmt.Sprintf("%s://%s%s/?%s", e.cfg.Scheme, e.cfg.Host, e.cfg.Path, q.Encode())

	resp, err := httpreq.Do(conn, &httpreq.Request{
		Method: http.MethodGet,
		URL:    rawURL,
		Header: header,
	}, true)
	if err != nil {
		conn.Discard()
		return fmt.Errorf("eio: %w: %v", ErrServerConnectionFailure, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		conn.Discard()
		return fmt.Errorf("eio: %w: upgrade status %d", ErrServerConnectionFailure, resp.StatusCode)
	}
	e.captureCookies(resp.Header)

	e.conn = conn
	e.enc = wsframe.NewEncoder(conn)
	e.dec = wsframe.NewDecoder(resp.Buffered)

	if err := e.WritePacket(Packet{Type: Upgrade}); err != nil {
		return err
	}

	if e.cfg.Dialect.DrainSpuriousConnectAfterUpgrade {
		if _, err := e.ReadPacket(); err != nil {
			return err
		}
	}

	e.session.touch(time.Now())
	return nil
}

// maxPayload returns the negotiated frame size ceiling, or a generous
// default when the handshake did not advertise one.
func (e *Engine) maxPayload() int {
	if e.session.MaxPayload > 0 {
		return e.session.MaxPayload
	}
	return 1 << 20
}

// WritePacket frames p as a single WebSocket text message.
func (e *Engine) WritePacket(p Packet) error {
	if e.enc == nil {
		return fmt.Errorf("eio: %w: not connected", ErrServerConnectionFailure)
	}
	if err := e.enc.Encode(wsframe.OpText, EncodePacket(p), e.maxPayload()); err != nil {
		return err
	}
	e.session.touch(time.Now())
	return nil
}

// WriteRaw sends b as a single WebSocket binary message, used for
// attachment frames following a BINARY_EVENT/BINARY_ACK text packet.
func (e *Engine) WriteRaw(b []byte) error {
	if e.enc == nil {
		return fmt.Errorf("eio: %w: not connected", ErrServerConnectionFailure)
	}
	if err := e.enc.Encode(wsframe.OpBinary, b, e.maxPayload()); err != nil {
		return err
	}
	e.session.touch(time.Now())
	return nil
}

// ReadPacket reads the next reassembled WebSocket message and decodes it as
// an Engine.IO packet. It is an error for a binary message to arrive here;
// binary attachment frames must be consumed via ReadRawFrame by the caller
// orchestrating a BINARY_EVENT reassembly (spec.md §4.3).
func (e *Engine) ReadPacket() (Packet, error) {
	if e.dec == nil {
		return Packet{}, fmt.Errorf("eio: %w: not connected", ErrServerConnectionFailure)
	}
	opcode, payload, err := e.dec.ReadMessage()
	if err != nil {
		return Packet{}, translateReadErr(err)
	}
	if opcode != wsframe.OpText {
		return Packet{}, fmt.Errorf("eio: %w: unexpected binary frame", ErrUnexpectedDuringAttachments)
	}
	pkt, err := DecodePacket(payload)
	if err != nil {
		return Packet{}, err
	}
	e.session.touch(time.Now())
	return pkt, nil
}

// ReadRawFrame reads exactly one WebSocket frame without packet parsing or
// fragment reassembly, used to collect the N binary attachment frames that
// follow a BINARY_EVENT/BINARY_ACK text packet. A frame other than a binary
// attachment arriving here — a stray PING/CLOSE/TEXT mid-reassembly — is a
// protocol error, not attachment data.
func (e *Engine) ReadRawFrame() ([]byte, error) {
	if e.dec == nil {
		return nil, fmt.Errorf("eio: %w: not connected", ErrServerConnectionFailure)
	}
	opcode, b, err := e.dec.ReadRawFrame()
	if err != nil {
		return nil, translateReadErr(err)
	}
	if opcode != wsframe.OpBinary {
		return nil, fmt.Errorf("eio: %w: expected binary attachment frame, got opcode %d", ErrUnexpectedDuringAttachments, opcode)
	}
	e.session.touch(time.Now())
	return b, nil
}

func translateReadErr(err error) error {
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return ErrTimeout
	}
	return err
}

// KeepAlive sends a PING if one is due (spec.md §4.2: EIO<=3 pings from the
// client; EIO>=4 pings arrive from the server and are answered by drain).
func (e *Engine) KeepAlive(now time.Time) error {
	if e.cfg.Dialect.Version > 3 {
		return nil
	}
	if !e.session.NeedsHeartbeat(now) {
		return nil
	}
	return e.WritePacket(Packet{Type: Ping})
}

// Close tears down the underlying connection and clears the session and
// cookies; Connect on it again starts a fresh handshake.
func (e *Engine) Close() error {
	if e.conn == nil {
		return nil
	}
	err := e.conn.Discard()
	e.conn = nil
	e.enc = nil
	e.dec = nil
	e.session = Session{}
	e.cookies = nil
	return err
}
