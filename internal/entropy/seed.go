// Package entropy draws fresh seeds for runs that should not replay a
// previous one. The drawn seed is recorded in the run's config, so even
// a fresh run stays reproducible afterwards.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// NewSeed returns a seed drawn from the OS entropy source. On the
// unlikely read failure it falls back to the wall clock.
func NewSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	// Keep it positive: negative seeds read like flag typos in logs.
	return int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))
}
