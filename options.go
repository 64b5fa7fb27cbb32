package socketio

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/sio-go/socketio-client/eio"
)

// Engine.IO protocol version constants (spec.md §6), re-exported so callers
// never need to import the eio package directly.
const (
	EIO0X = eio.EIO0X
	EIO1X = eio.EIO1X
	EIO2X = eio.EIO2X
	EIO3X = eio.EIO3X
	EIO4X = eio.EIO4X
)

const defaultMaxPayload = 100_000_000

// Options configures a Client (spec.md §3). NewClient starts from the
// defaults (EIO4X, a 20s read timeout, a max payload of 10^8 bytes, no auth,
// no extra headers) and applies the given Options on top.
type Options struct {
	Version    int
	UseB64     bool
	Timeout    time.Duration
	Wait       time.Duration
	Persistent bool
	Headers    http.Header
	Auth       any
	TLSConfig  *tls.Config
	MaxPayload int
}

// Option mutates an Options in place; see the With* constructors below.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Version:    EIO4X,
		Timeout:    20 * time.Second,
		MaxPayload: defaultMaxPayload,
	}
}

// WithVersion pins the Engine.IO protocol version (spec.md §3 "version").
func WithVersion(v int) Option {
	return func(o *Options) { o.Version = v }
}

// WithB64 adds b64=1 to polling query strings, for EIO2 servers that cannot
// carry binary frames.
func WithB64(enabled bool) Option {
	return func(o *Options) { o.UseB64 = enabled }
}

// WithTimeout sets the read timeout applied to every Byte Stream read.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithWait sets the post-send sleep Emit applies after writing (spec.md §5
// "emit (after-send sleep of wait microseconds)").
func WithWait(d time.Duration) Option {
	return func(o *Options) { o.Wait = d }
}

// WithPersistent enables TCP-socket reuse across poll requests.
func WithPersistent(enabled bool) Option {
	return func(o *Options) { o.Persistent = enabled }
}

// WithHeaders adds h to every HTTP request and the WebSocket upgrade.
func WithHeaders(h http.Header) Option {
	return func(o *Options) { o.Headers = h }
}

// WithAuth sets the payload sent as the namespace CONNECT body on EIO>=4.
func WithAuth(auth any) Option {
	return func(o *Options) { o.Auth = auth }
}

// WithTLSConfig sets the TLS configuration used when the URL scheme is
// "https"/"wss".
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *Options) { o.TLSConfig = cfg }
}

// WithMaxPayload refuses to send frames whose encoded size exceeds n bytes.
func WithMaxPayload(n int) Option {
	return func(o *Options) { o.MaxPayload = n }
}
