package eio

import "time"

// Session is the value object spec.md §3 describes: one per connection,
// created on successful handshake, destroyed on close.
type Session struct {
	SID          string
	PingInterval time.Duration
	PingTimeout  time.Duration
	Upgrades     []string
	MaxPayload   int
	LastActivity time.Time
}

// Timeout is the invariant from spec.md §3: getTimeout() = pingInterval +
// pingTimeout.
func (s *Session) Timeout() time.Duration {
	return s.PingInterval + s.PingTimeout
}

// NeedsHeartbeat reports whether a PING is due: now - lastActivity >=
// pingInterval.
func (s *Session) NeedsHeartbeat(now time.Time) bool {
	return now.Sub(s.LastActivity) >= s.PingInterval
}

func (s *Session) touch(now time.Time) {
	s.LastActivity = now
}
