// Package yeast generates short, strictly monotonic, URL-safe identifiers
// used as the "t" cache-buster query parameter on Engine.IO polling
// requests.
package yeast

import (
	"sync"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var alphabetIndex = func() map[byte]int64 {
	m := make(map[byte]int64, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = int64(i)
	}
	return m
}()

var (
	mu       sync.Mutex
	prevTime int64
	seqIndex int64
)

// encode converts n to a base-len(alphabet) string.
func encode(n int64) string {
	if n == 0 {
		return string(alphabet[0])
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%int64(len(alphabet))]
		n /= int64(len(alphabet))
	}
	return string(buf[i:])
}

// Now returns the next yeast identifier. Two calls within the same
// millisecond produce distinct, lexicographically increasing strings
// because of the appended sequence counter.
func Now() string {
	return at(time.Now().UnixMilli())
}

func at(ms int64) string {
	mu.Lock()
	defer mu.Unlock()

	if ms != prevTime {
		seqIndex = 0
		prevTime = ms
		return encode(ms)
	}

	seqIndex++
	return encode(ms) + "." + encode(seqIndex)
}

// Reset clears the internal sequence counter. Exposed for tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	prevTime = 0
	seqIndex = 0
}
