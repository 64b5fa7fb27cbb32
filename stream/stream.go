// Package stream provides the bidirectional byte-stream abstraction that
// httpreq and wsframe are built on: a TCP or TLS socket with a
// configurable read timeout and an optional persistent-connection mode.
package stream

import (
	"crypto/tls"
	"net"
	"time"
)

// Conn wraps a net.Conn (plain TCP or TLS) adding the read-timeout
// semantics the rest of the client relies on: a blocking Read that returns
// a *TimeoutError instead of hanging forever when no data arrives within
// Timeout.
type Conn struct {
	net.Conn

	Host       string
	Persistent bool
	Timeout    time.Duration
}

// TimeoutError is returned by Conn.Read when the read deadline elapses
// with no data. eio maps it to eio.ErrTimeout, which Client.Drain treats as
// recoverable.
type TimeoutError struct{ Op string }

func (e *TimeoutError) Error() string { return "stream: " + e.Op + " timed out" }

func (e *TimeoutError) Timeout() bool   { return true }
func (e *TimeoutError) Temporary() bool { return true }

// Dial opens a new Conn to addr ("host:port"). If tlsConfig is non-nil the
// connection is upgraded with crypto/tls; otherwise it is plain TCP.
func Dial(network, addr string, timeout time.Duration, tlsConfig *tls.Config) (*Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}

	var (
		conn net.Conn
		err  error
	)
	if tlsConfig != nil {
		conn, err = tls.DialWithDialer(dialer, network, addr, tlsConfig)
	} else {
		conn, err = dialer.Dial(network, addr)
	}
	if err != nil {
		return nil, err
	}

	return &Conn{Conn: conn, Host: addr, Timeout: timeout}, nil
}

// Read implements io.Reader, translating a deadline expiry into
// *TimeoutError so callers can distinguish "no data yet" from a fatal I/O
// error.
func (c *Conn) Read(p []byte) (int, error) {
	if c.Timeout > 0 {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.Timeout))
	}

	n, err := c.Conn.Read(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, &TimeoutError{Op: "read"}
		}
		return n, err
	}
	return n, nil
}

// Write implements io.Writer with no deadline of its own: writes to a
// healthy socket rarely block, and the caller (httpreq/wsframe) already
// bounds overall operation time via Timeout on the subsequent read.
func (c *Conn) Write(p []byte) (int, error) {
	return c.Conn.Write(p)
}

// Release closes the connection unless Persistent is set, in which case
// it is left open for the next request to reuse (matching the
// `persistent` option in spec §3).
func (c *Conn) Release() error {
	if c.Persistent {
		return nil
	}
	return c.Conn.Close()
}

// Discard forcibly closes the connection regardless of Persistent. The
// Engine calls it when the WebSocket upgrade fails and from Engine.Close; a
// failed write does not discard the stream by itself.
func (c *Conn) Discard() error {
	return c.Conn.Close()
}
