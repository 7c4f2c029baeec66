package shared

import (
	"context"
	"time"
)

// IdempotencyStore records completed operation keys so retried work is not
// redone. It guards external side effects such as writing a feedback page
// into a document twice when an approval is retried.
type IdempotencyStore interface {
	// MarkProcessed marks an operation key as done with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether an operation key has already been recorded
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a completed operation key stays recorded.
	// After it expires the same key may be processed again.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
