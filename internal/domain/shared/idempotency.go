package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers webhook delivery fingerprints so repeated
// deliveries of the same event are applied at most once.
type IdempotencyStore interface {
	// MarkProcessed records a delivery fingerprint with a TTL.
	// Returns true if the fingerprint was newly recorded, false if a
	// previous delivery already claimed it.
	MarkProcessed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether a delivery fingerprint is already recorded.
	IsProcessed(ctx context.Context, fingerprint string) (bool, error)

	// Close releases resources held by the store.
	Close() error
}

// DefaultIdempotencyTTL bounds how long a delivery fingerprint is retained.
// Webhook retries from the point of sale arrive within minutes, so a day is
// comfortably past the retry horizon.
const DefaultIdempotencyTTL = 24 * time.Hour
