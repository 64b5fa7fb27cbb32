// Package sio implements the Socket.IO application-layer packet codec:
// encoding/decoding of CONNECT/DISCONNECT/EVENT/ACK/BINARY_EVENT/BINARY_ACK
// packets, namespace handling, and the binary-attachment placeholder
// protocol used to carry byte blobs alongside an event's JSON payload.
package sio

// Op is a Socket.IO packet opcode (spec.md §4.3).
type Op int

const (
	Connect Op = iota
	Disconnect
	Event
	Ack
	ConnectError
	BinaryEvent
	BinaryAck
)

func (op Op) String() string {
	switch op {
	case Connect:
		return "CONNECT"
	case Disconnect:
		return "DISCONNECT"
	case Event:
		return "EVENT"
	case Ack:
		return "ACK"
	case ConnectError:
		return "CONNECT_ERROR"
	case BinaryEvent:
		return "BINARY_EVENT"
	case BinaryAck:
		return "BINARY_ACK"
	default:
		return "UNKNOWN"
	}
}

// IsBinary reports whether op carries attachments.
func (op Op) IsBinary() bool { return op == BinaryEvent || op == BinaryAck }

// Packet is the decoded tagged-variant Socket.IO packet described in
// spec.md §3 and §9.
type Packet struct {
	Op        Op
	Namespace string // "" is normalized to "/" on decode
	ID        *int64
	Event     string // first element of the JSON array, for Event/BinaryEvent
	Args      []any  // remaining array elements
	Data      any    // raw payload for Connect (auth)/ConnectError; nil otherwise
	BinCount  int    // number of trailing attachment frames, for Binary* ops

	// ForceNamespace makes Encode always emit the namespace segment even
	// when it is "" or "/", matching the EIO>=4 CONNECT rule in
	// spec.md §4.3 ("for EIO >= 4 CONNECT the namespace is always
	// emitted").
	ForceNamespace bool
}

// Placeholder is the in-JSON marker for a binary attachment, spec.md §3:
// {"_placeholder": true, "num": i}.
type Placeholder struct {
	Num int
}

// MarshalJSON implements json.Marshaler.
func (p Placeholder) MarshalJSON() ([]byte, error) {
	return []byte(`{"_placeholder":true,"num":` + itoa(p.Num) + `}`), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// isPlaceholder reports whether v, as decoded generically from JSON
// (map[string]any), is an attachment placeholder, and returns its index.
func isPlaceholder(v any) (int, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	if b, ok := m["_placeholder"].(bool); !ok || !b {
		return 0, false
	}
	num, ok := m["num"].(float64)
	if !ok {
		return 0, false
	}
	return int(num), true
}

// MatchNamespace reports whether the packet namespace nsp matches the
// requested namespace want. It accepts exact equality as well as the
// "/"-stripped off-by-one-slash form the original JS client tolerates
// (spec.md §9 Open Question #2: "left as-is to preserve wire
// compatibility").
func MatchNamespace(nsp, want string) bool {
	if nsp == want {
		return true
	}
	normalize := func(s string) string {
		if s == "" {
			return "/"
		}
		return s
	}
	a, b := normalize(nsp), normalize(want)
	if a == b {
		return true
	}
	trim := func(s string) string {
		if len(s) > 1 && s[len(s)-1] == '/' {
			return s[:len(s)-1]
		}
		return s
	}
	return trim(a) == trim(b)
}
