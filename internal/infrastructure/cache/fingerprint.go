package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives a stable idempotency key for a webhook delivery from
// the route it hit and the raw request body. Identical redeliveries hash to
// the same key regardless of header noise.
func Fingerprint(route string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
