package eio

import "errors"

var (
	// ErrServerConnectionFailure covers handshake HTTP failures: status
	// != 200 on polling, != 101 on upgrade, a missing sid, or a rejected
	// namespace CONNECT.
	ErrServerConnectionFailure = errors.New("eio: server connection failure")

	// ErrUnsupportedTransport is raised when the server's handshake does
	// not advertise "websocket" among its upgrades.
	ErrUnsupportedTransport = errors.New("eio: server does not support websocket upgrade")

	// ErrProtocol covers malformed framing: an empty packet, a missing or
	// non-digit length prefix, a length prefix that overruns the body, an
	// unknown opcode.
	ErrProtocol = errors.New("eio: protocol error")

	// ErrTimeout is the recoverable "no data yet" signal from a read
	// deadline expiring with nothing received.
	ErrTimeout = errors.New("eio: read timed out")

	// ErrUnexpectedDuringAttachments is raised when a non-binary frame
	// arrives while reassembling a BINARY_EVENT's attachments (spec.md §5,
	// §9 Open Question #1 — treated as a protocol error).
	ErrUnexpectedDuringAttachments = errors.New("eio: unexpected packet during attachment reassembly")
)
