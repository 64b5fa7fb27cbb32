// Package socketio implements a non-browser Socket.IO client: the
// Engine.IO handshake/upgrade/heartbeat lifecycle (package eio), the
// Socket.IO packet codec with binary attachments (package sio), and the
// Session Façade (this package) tying the two together behind a small
// blocking API — Connect, Of, Emit, Wait, Drain, Close.
package socketio

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-logr/logr"

	"github.com/sio-go/socketio-client/eio"
	"github.com/sio-go/socketio-client/sio"
)

// Client is the Session Façade of spec.md §4.4. It owns exactly one Engine
// at a time; a closed Client is terminal and must be replaced by a fresh
// NewClient call to reconnect.
type Client struct {
	opts Options
	eng  *eio.Engine
	nsp  string
	log  logr.Logger

	connected bool
}

// NewClient builds a Client targeting rawURL ("http(s)://host:port/path" or
// "ws(s)://..."). The path defaults to "/socket.io" when rawURL carries
// none. No network I/O happens until Connect.
func NewClient(rawURL string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &InvalidArgument{Message: fmt.Sprintf("invalid url %q: %v", rawURL, err)}
	}
	if u.Host == "" {
		return nil, &InvalidArgument{Message: fmt.Sprintf("invalid url %q: missing host", rawURL)}
	}

	scheme := httpScheme(u.Scheme)
	path := u.Path
	if path == "" || path == "/" {
		path = "/socket.io"
	}

	cfg := eio.Config{
		Scheme:     scheme,
		Host:       u.Host,
		Path:       path,
		Dialect:    eio.DialectFor(o.Version),
		Headers:    o.Headers,
		UseB64:     o.UseB64,
		Persistent: o.Persistent,
		Timeout:    o.Timeout,
		MaxPayload: o.MaxPayload,
		TLSConfig:  o.TLSConfig,
		Namespace:  "/",
		Auth:       o.Auth,
	}

	return &Client{
		opts: o,
		eng:  eio.NewEngine(cfg),
		nsp:  "/",
		log:  getLogger("socketio"),
	}, nil
}

func httpScheme(s string) string {
	switch s {
	case "wss", "https":
		return "https"
	default:
		return "http"
	}
}

// Connect runs the handshake, the EIO>=4 pre-upgrade namespace connect, and
// the WebSocket upgrade. Idempotent if already connected.
func (c *Client) Connect() error {
	if c.connected {
		return nil
	}
	if err := c.eng.Connect(); err != nil {
		return wrapEngineError(err)
	}
	c.connected = true
	c.log.Info("connected", "sid", c.eng.Session().SID, "namespace", c.nsp)
	return nil
}

// Of switches the active namespace. If nsp differs from the current one, a
// CONNECT packet is sent and Drain is called repeatedly until the server's
// acknowledgment (or a CONNECT_ERROR) arrives.
func (c *Client) Of(nsp string) error {
	if nsp == "" {
		nsp = "/"
	}
	if nsp == c.nsp {
		return nil
	}

	pkt := sio.Packet{Op: sio.Connect, Namespace: nsp, ForceNamespace: true, Data: c.opts.Auth}
	text, _, err := sio.Encode(pkt)
	if err != nil {
		return &InvalidArgument{Message: err.Error()}
	}
	if err := c.eng.WritePacket(eio.Packet{Type: eio.Message, Data: []byte(text)}); err != nil {
		return wrapEngineError(err)
	}

	sess := c.eng.Session()
	deadline := time.Now().Add(sess.Timeout())
	for time.Now().Before(deadline) {
		got, err := c.Drain()
		if err != nil {
			if errors.Is(err, eio.ErrTimeout) {
				continue
			}
			return err
		}
		if got == nil {
			continue
		}
		switch got.Op {
		case sio.Connect:
			if sio.MatchNamespace(got.Namespace, nsp) {
				c.nsp = nsp
				return nil
			}
		case sio.ConnectError:
			if sio.MatchNamespace(got.Namespace, nsp) {
				return &ServerConnectionFailure{Message: fmt.Sprintf("namespace %s rejected: %v", nsp, got.Data)}
			}
		}
	}
	return &ServerConnectionFailure{Message: fmt.Sprintf("namespace %s: no acknowledgment before timeout", nsp)}
}

// Emit assembles and transmits one EVENT (or BINARY_EVENT, if args contains
// any sio.BinaryInput leaves) on the current namespace. Top-level args are
// passed through sio.AutoDetect first, so []byte and io.Reader values are
// still recognized as blobs without an explicit sio.Bytes wrapper. Emit may
// send a heartbeat PING first and always sleeps Options.Wait after writing.
// It returns the total number of bytes written across the text frame and
// any attachment frames.
func (c *Client) Emit(event string, args ...any) (int, error) {
	if event == "" {
		return 0, &InvalidArgument{Message: "emit: empty event name"}
	}
	if err := c.eng.KeepAlive(time.Now()); err != nil {
		return 0, wrapEngineError(err)
	}

	detected := make([]any, len(args))
	for i, a := range args {
		v, err := sio.AutoDetect(a)
		if err != nil {
			return 0, &InvalidArgument{Message: err.Error()}
		}
		detected[i] = v
	}

	text, attachments, err := sio.Encode(sio.Packet{Op: sio.Event, Namespace: c.nsp, Event: event, Args: detected})
	if err != nil {
		return 0, &InvalidArgument{Message: err.Error()}
	}

	if n := len(text); c.opts.MaxPayload > 0 && n > c.opts.MaxPayload {
		return 0, &PayloadTooLarge{Message: fmt.Sprintf("emit: text frame of %d bytes exceeds max_payload %d", n, c.opts.MaxPayload)}
	}
	for _, att := range attachments {
		if c.opts.MaxPayload > 0 && len(att) > c.opts.MaxPayload {
			return 0, &PayloadTooLarge{Message: fmt.Sprintf("emit: attachment of %d bytes exceeds max_payload %d", len(att), c.opts.MaxPayload)}
		}
	}

	if err := c.eng.WritePacket(eio.Packet{Type: eio.Message, Data: []byte(text)}); err != nil {
		return 0, wrapEngineError(err)
	}
	total := len(text)
	for _, att := range attachments {
		if err := c.eng.WriteRaw(att); err != nil {
			return total, wrapEngineError(err)
		}
		total += len(att)
	}

	if c.opts.Wait > 0 {
		time.Sleep(c.opts.Wait)
	}
	return total, nil
}

// Wait blocks reading from the stream until a MESSAGE arrives whose opcode
// is EVENT (or a reassembled BINARY_EVENT), the namespace matches the
// current one, and the event name equals want. Every other packet is
// consumed silently by Drain along the way.
func (c *Client) Wait(want string) (sio.Packet, error) {
	for {
		got, err := c.Drain()
		if err != nil {
			if errors.Is(err, eio.ErrTimeout) {
				continue
			}
			return sio.Packet{}, err
		}
		if got == nil {
			continue
		}
		if got.Event != want {
			continue
		}
		if !sio.MatchNamespace(got.Namespace, c.nsp) {
			continue
		}
		return *got, nil
	}
}

// DrainRaw reads exactly one raw WebSocket frame with no packet parsing and
// no PING/NOOP handling, the "raw" mode of spec.md §4.4's drain contract.
// Used while reassembling a BINARY_EVENT/BINARY_ACK's attachment frames,
// where the ordering guarantee in spec.md §5 means no control frame can
// arrive mid-sequence.
func (c *Client) DrainRaw() ([]byte, error) {
	b, err := c.eng.ReadRawFrame()
	if err != nil {
		return nil, wrapEngineError(err)
	}
	return b, nil
}

// Drain performs one read-and-interpret cycle: auto-responds to PING with
// PONG, swallows NOOP/PONG, reassembles BINARY_EVENT/BINARY_ACK packets by
// reading their attachment frames via DrainRaw, and returns nil (no error)
// for anything handled internally, including a read timeout with no data.
// keepAlive always runs at the end.
func (c *Client) Drain() (*sio.Packet, error) {
	pkt, err := c.eng.ReadPacket()
	if err != nil {
		if !errors.Is(err, eio.ErrTimeout) {
			return nil, wrapEngineError(err)
		}
		pkt = eio.Packet{Type: eio.Noop}
	}

	var result *sio.Packet
	switch pkt.Type {
	case eio.Ping:
		if werr := c.eng.WritePacket(eio.Packet{Type: eio.Pong}); werr != nil {
			return nil, wrapEngineError(werr)
		}
	case eio.Pong, eio.Noop:
		// swallowed
	case eio.Message:
		decoded, derr := sio.Decode(pkt.Data)
		if derr != nil {
			return nil, &SocketError{Code: "protocol", Message: derr.Error(), Err: derr}
		}
		if decoded.Op == sio.BinaryEvent || decoded.Op == sio.BinaryAck {
			decoded, err = c.reassemble(decoded)
			if err != nil {
				return nil, err
			}
		}
		result = &decoded
	}

	if err := c.eng.KeepAlive(time.Now()); err != nil {
		return nil, wrapEngineError(err)
	}
	return result, nil
}

// reassemble reads exactly p.BinCount raw WebSocket frames and substitutes
// them into p's placeholders, per spec.md §4.3.
func (c *Client) reassemble(p sio.Packet) (sio.Packet, error) {
	attachments := make([][]byte, p.BinCount)
	for i := 0; i < p.BinCount; i++ {
		b, err := c.DrainRaw()
		if err != nil {
			return sio.Packet{}, err
		}
		attachments[i] = b
	}
	return sio.Reassemble(p, attachments)
}

// Close disconnects the current namespace (if any) and tears down the
// underlying Engine. A Client is not reusable after Close; create a new one
// to reconnect.
func (c *Client) Close() error {
	if !c.connected {
		return nil
	}
	if text, _, err := sio.Encode(sio.Packet{Op: sio.Disconnect, Namespace: c.nsp}); err == nil {
		_ = c.eng.WritePacket(eio.Packet{Type: eio.Message, Data: []byte(text)})
	}
	err := c.eng.Close()
	c.connected = false
	return err
}
