package sio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedPacket is returned by Decode for any packet that does not
// conform to the grammar in spec.md §4.3.
var ErrMalformedPacket = errors.New("sio: malformed packet")

// Encode serializes p per spec.md §4.3:
//
//	<type><nAttach "-">?<nsp ",">?<jsonArray>
//
// It returns the text frame payload and, for Event/Ack packets carrying
// BinaryInput leaves in Args, the drained attachment bytes in emission
// order; those attachments must be written as the following N WebSocket
// binary frames, in order (spec.md §5 ordering guarantee).
func Encode(p Packet) (text string, attachments [][]byte, err error) {
	op := p.Op
	var args []any
	var data any

	switch op {
	case Event, BinaryEvent:
		args, attachments = ExtractAttachments(p.Args)
		if len(attachments) > 0 {
			op = BinaryEvent
		} else {
			op = Event
		}
	case Ack, BinaryAck:
		args, attachments = ExtractAttachments(p.Args)
		if len(attachments) > 0 {
			op = BinaryAck
		} else {
			op = Ack
		}
	case Connect, ConnectError:
		data = p.Data
	case Disconnect:
		// no payload
	default:
		return "", nil, fmt.Errorf("%w: unknown op %v", ErrMalformedPacket, p.Op)
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, byte('0'+int(op)))

	if op.IsBinary() {
		buf = append(buf, []byte(strconv.Itoa(len(attachments)))...)
		buf = append(buf, '-')
	}

	nsp := p.Namespace
	emitNsp := p.ForceNamespace || (nsp != "" && nsp != "/")
	if emitNsp {
		if nsp == "" {
			nsp = "/"
		}
		buf = append(buf, []byte(nsp)...)
		buf = append(buf, ',')
	}

	if p.ID != nil {
		buf = append(buf, []byte(strconv.FormatInt(*p.ID, 10))...)
	}

	switch op {
	case Event, BinaryEvent:
		head := append([]any{p.Event}, args...)
		encoded, err := json.Marshal(head)
		if err != nil {
			return "", nil, fmt.Errorf("sio: encode event data: %w", err)
		}
		buf = append(buf, encoded...)
	case Ack, BinaryAck:
		encoded, err := json.Marshal(args)
		if err != nil {
			return "", nil, fmt.Errorf("sio: encode ack data: %w", err)
		}
		buf = append(buf, encoded...)
	case Connect, ConnectError:
		if data != nil {
			encoded, err := json.Marshal(data)
			if err != nil {
				return "", nil, fmt.Errorf("sio: encode connect data: %w", err)
			}
			buf = append(buf, encoded...)
		}
	}

	return string(buf), attachments, nil
}

// Decode parses one Socket.IO text packet per the cursor state machine in
// spec.md §4.3. The returned Packet's BinCount (for BinaryEvent/BinaryAck)
// tells the caller how many subsequent raw WebSocket frames to read and
// feed to SubstitutePlaceholder before the packet is usable.
func Decode(raw []byte) (Packet, error) {
	if len(raw) == 0 {
		return Packet{}, fmt.Errorf("%w: empty packet", ErrMalformedPacket)
	}

	i := 0
	if raw[i] < '0' || raw[i] > '6' {
		return Packet{}, fmt.Errorf("%w: bad op byte %q", ErrMalformedPacket, raw[i])
	}
	op := Op(raw[i] - '0')
	i++

	p := Packet{Op: op, Namespace: "/"}

	if op == BinaryEvent || op == BinaryAck {
		start := i
		for i < len(raw) && raw[i] != '-' {
			if raw[i] < '0' || raw[i] > '9' {
				return Packet{}, fmt.Errorf("%w: bad attachment count", ErrMalformedPacket)
			}
			i++
		}
		if i >= len(raw) {
			return Packet{}, fmt.Errorf("%w: missing '-' after attachment count", ErrMalformedPacket)
		}
		n, err := strconv.Atoi(string(raw[start:i]))
		if err != nil {
			return Packet{}, fmt.Errorf("%w: attachment count: %v", ErrMalformedPacket, err)
		}
		p.BinCount = n
		i++ // consume '-'
	}

	if i < len(raw) && raw[i] == '/' {
		start := i
		for i < len(raw) && raw[i] != ',' && raw[i] != '[' && raw[i] != '{' {
			i++
		}
		p.Namespace = string(raw[start:i])
		if i < len(raw) && raw[i] == ',' {
			i++
		}
	}

	if i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		start := i
		for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
			i++
		}
		id, err := strconv.ParseInt(string(raw[start:i]), 10, 64)
		if err != nil {
			return Packet{}, fmt.Errorf("%w: ack id: %v", ErrMalformedPacket, err)
		}
		p.ID = &id
	}

	rest := raw[i:]

	switch op {
	case Event, BinaryEvent:
		if len(rest) == 0 {
			return Packet{}, fmt.Errorf("%w: event packet missing data", ErrMalformedPacket)
		}
		var arr []any
		if err := json.Unmarshal(rest, &arr); err != nil {
			return Packet{}, fmt.Errorf("%w: event data: %v", ErrMalformedPacket, err)
		}
		if len(arr) == 0 {
			return Packet{}, fmt.Errorf("%w: event array empty", ErrMalformedPacket)
		}
		name, ok := arr[0].(string)
		if !ok {
			return Packet{}, fmt.Errorf("%w: event name not a string", ErrMalformedPacket)
		}
		p.Event = name
		p.Args = arr[1:]
	case Ack, BinaryAck:
		if len(rest) > 0 {
			var arr []any
			if err := json.Unmarshal(rest, &arr); err != nil {
				return Packet{}, fmt.Errorf("%w: ack data: %v", ErrMalformedPacket, err)
			}
			p.Args = arr
		}
	case Connect, ConnectError:
		if len(rest) > 0 {
			var data any
			if err := json.Unmarshal(rest, &data); err != nil {
				return Packet{}, fmt.Errorf("%w: connect data: %v", ErrMalformedPacket, err)
			}
			p.Data = data
		}
	case Disconnect:
		// no payload
	}

	return p, nil
}

// Reassemble substitutes each attachment (indexed by its position in the
// slice, matching the placeholder's "num") into p.Args and reclassifies
// the packet as a plain Event/Ack once all attachments have been placed,
// per spec.md §4.3 step 4. len(attachments) must equal p.BinCount.
func Reassemble(p Packet, attachments [][]byte) (Packet, error) {
	if len(attachments) != p.BinCount {
		return Packet{}, fmt.Errorf("%w: expected %d attachments, got %d", ErrMalformedPacket, p.BinCount, len(attachments))
	}

	args := make([]any, len(p.Args))
	copy(args, p.Args)

	for idx, data := range attachments {
		substituted := false
		for i, a := range args {
			var ok bool
			args[i], ok = SubstitutePlaceholder(a, idx, data)
			if ok {
				substituted = true
				break
			}
		}
		if !substituted {
			return Packet{}, fmt.Errorf("%w: no placeholder found for attachment %d", ErrMalformedPacket, idx)
		}
	}

	p.Args = args
	p.BinCount = 0
	switch p.Op {
	case BinaryEvent:
		p.Op = Event
	case BinaryAck:
		p.Op = Ack
	}
	return p, nil
}
