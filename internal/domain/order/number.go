package order

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// numberPrefix is the legacy human-facing prefix. Kept for continuity with
// order numbers issued before the rewrite.
const numberPrefix = "MM"

// NewOrderNumber generates a human-facing order number: the legacy prefix,
// the six low-order decimal digits of the creation time in milliseconds, and
// six hex characters of random entropy.
//
// The legacy scheme suffixed a zero-padded total order count read before the
// insert, which could collide when two orders were created in the same
// instant. The random suffix removes that window without changing the
// number's shape.
func NewOrderNumber(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}

	var buf [3]byte
	// crypto/rand.Read cannot fail on supported platforms.
	_, _ = rand.Read(buf[:])

	return numberPrefix + millis + hex.EncodeToString(buf[:])
}
