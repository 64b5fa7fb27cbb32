package socketio

import (
	"errors"
	"fmt"

	"github.com/sio-go/socketio-client/eio"
	"github.com/sio-go/socketio-client/wsframe"
)

// ServerConnectionFailure covers handshake/upgrade-level rejections: a
// non-200 polling status, a non-101 upgrade status, a missing sid, or a
// namespace CONNECT_ERROR from the server (spec.md §7).
type ServerConnectionFailure struct{ Message string }

func (e *ServerConnectionFailure) Error() string { return "socketio: " + e.Message }

// UnsupportedTransport is raised when the handshake's upgrade list does not
// include "websocket".
type UnsupportedTransport struct{ Message string }

func (e *UnsupportedTransport) Error() string { return "socketio: " + e.Message }

// PayloadTooLarge is raised when an outgoing payload exceeds
// Options.MaxPayload (checked by Emit) or when the frame encoder refuses an
// oversized control frame; the write never happens.
type PayloadTooLarge struct{ Message string }

func (e *PayloadTooLarge) Error() string { return "socketio: " + e.Message }

// InvalidArgument is raised for caller mistakes: an out-of-range packet
// opcode, an Emit with no event name, and similar.
type InvalidArgument struct{ Message string }

func (e *InvalidArgument) Error() string { return "socketio: " + e.Message }

// SocketError wraps a transport-level I/O failure (connection refused, TLS
// failure, a write on a discarded stream) with an optional code, per the
// "Transport I/O" row of spec.md §7.
type SocketError struct {
	Code    string
	Message string
	Err     error
}

func (e *SocketError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("socketio: [%s] %s", e.Code, e.Message)
	}
	return "socketio: " + e.Message
}

func (e *SocketError) Unwrap() error { return e.Err }

// wrapEngineError maps eio's package-local sentinels onto the public error
// taxonomy above so callers never need to import eio directly.
func wrapEngineError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, eio.ErrUnsupportedTransport):
		return &UnsupportedTransport{Message: err.Error()}
	case errors.Is(err, eio.ErrServerConnectionFailure):
		return &ServerConnectionFailure{Message: err.Error()}
	case errors.Is(err, eio.ErrTimeout):
		return err
	case errors.Is(err, wsframe.ErrPayloadTooLarge):
		return &PayloadTooLarge{Message: err.Error()}
	case errors.Is(err, eio.ErrProtocol), errors.Is(err, eio.ErrUnexpectedDuringAttachments):
		return &SocketError{Code: "protocol", Message: err.Error(), Err: err}
	default:
		return &SocketError{Message: err.Error(), Err: err}
	}
}
