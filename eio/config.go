package eio

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Config carries everything the Engine needs to dial and handshake,
// built by the socketio root package from its public Options (spec.md
// §3).
type Config struct {
	Scheme string // "http" or "https"
	Host   string // host:port
	Path   string // e.g. "/socket.io"

	Dialect Dialect

	Headers    http.Header
	Origin     string
	UseB64     bool
	Persistent bool
	Timeout    time.Duration
	MaxPayload int
	TLSConfig  *tls.Config

	// Namespace and Auth are used for the EIO>=4 pre-upgrade namespace
	// CONNECT (spec.md §4.2).
	Namespace string
	Auth      any
}
