package eio

import (
	"bytes"
	"fmt"
)

// PacketType is one of the seven Engine.IO opcodes, spec.md §4.2.
type PacketType int

const (
	Open PacketType = iota
	Close
	Ping
	Pong
	Message
	Upgrade
	Noop
)

// Packet is a decoded Engine.IO packet: an opcode plus its raw payload.
// For Message packets, Data is the embedded Socket.IO text (or a raw
// binary attachment, surfaced separately — see Engine.ReadRawFrame).
type Packet struct {
	Type PacketType
	Data []byte
}

// DecodePacket splits a single raw Engine.IO packet (as produced by
// SplitPollingBody, or as the payload of one WebSocket text message) into
// its opcode and payload.
func DecodePacket(raw []byte) (Packet, error) {
	if len(raw) == 0 {
		return Packet{}, fmt.Errorf("eio: %w: empty packet", ErrProtocol)
	}
	if raw[0] < '0' || raw[0] > '6' {
		return Packet{}, fmt.Errorf("eio: %w: unknown opcode %q", ErrProtocol, raw[0])
	}
	return Packet{Type: PacketType(raw[0] - '0'), Data: raw[1:]}, nil
}

// EncodePacket serializes p back to wire form.
func EncodePacket(p Packet) []byte {
	out := make([]byte, 0, len(p.Data)+1)
	out = append(out, byte('0'+int(p.Type)))
	out = append(out, p.Data...)
	return out
}

// SplitPollingBody splits one HTTP polling response/request body into its
// constituent Engine.IO packets, per the two dialects in spec.md §4.2.
func SplitPollingBody(d Dialect, body []byte) ([][]byte, error) {
	if !d.LengthPrefixed {
		if len(body) == 0 {
			return nil, nil
		}
		return bytes.Split(body, []byte{0x1e}), nil
	}

	var packets [][]byte
	for len(body) > 0 {
		sep := bytes.IndexByte(body, ':')
		if sep < 0 {
			return nil, fmt.Errorf("eio: %w: missing length delimiter", ErrProtocol)
		}
		n := 0
		for _, c := range body[:sep] {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("eio: %w: non-digit length prefix", ErrProtocol)
			}
			n = n*10 + int(c-'0')
		}
		start := sep + 1
		end := start + n
		if end > len(body) {
			return nil, fmt.Errorf("eio: %w: length prefix exceeds body", ErrProtocol)
		}
		packets = append(packets, body[start:end])
		body = body[end:]
	}
	return packets, nil
}

// JoinPollingBody is the encode-side counterpart of SplitPollingBody, used
// when writing the namespace-CONNECT POST body for EIO>=4 (which is
// always a single packet, so this mainly documents the EIO<=3 framing
// used when the caller batches several packets into one POST).
func JoinPollingBody(d Dialect, packets [][]byte) []byte {
	if !d.LengthPrefixed {
		out := make([]byte, 0)
		for i, p := range packets {
			if i > 0 {
				out = append(out, 0x1e)
			}
			out = append(out, p...)
		}
		return out
	}

	var buf bytes.Buffer
	for _, p := range packets {
		fmt.Fprintf(&buf, "%d:", len(p))
		buf.Write(p)
	}
	return buf.Bytes()
}
