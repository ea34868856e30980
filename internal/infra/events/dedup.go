package events

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the dedup contract the webhook handlers depend on.
type Store interface {
	Seen(ctx context.Context, provider, eventID string) bool
	Forget(ctx context.Context, provider, eventID string)
}

// Dedup remembers webhook event IDs so redelivered events are skipped.
// Providers retry aggressively; their event IDs are stable across retries.
type Dedup struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*Dedup)(nil)

func NewDedup(rdb *redis.Client) *Dedup {
	return &Dedup{rdb: rdb, ttl: 72 * time.Hour}
}

// Seen marks the event as claimed and reports whether it was already
// claimed. Callers that fail to process the event must Forget it, or the
// provider's retry would be swallowed as a duplicate. A missing or
// failing Redis degrades to "not seen": processing an event twice beats
// dropping it.
func (d *Dedup) Seen(ctx context.Context, provider, eventID string) bool {
	if d == nil || d.rdb == nil || eventID == "" {
		return false
	}
	ok, err := d.rdb.SetNX(ctx, key(provider, eventID), 1, d.ttl).Result()
	if err != nil {
		log.Println("webhook dedup check failed:", err)
		return false
	}
	return !ok
}

// Forget releases a claim taken by Seen after processing failed.
func (d *Dedup) Forget(ctx context.Context, provider, eventID string) {
	if d == nil || d.rdb == nil || eventID == "" {
		return
	}
	if err := d.rdb.Del(ctx, key(provider, eventID)).Err(); err != nil {
		log.Println("webhook dedup release failed:", err)
	}
}

func key(provider, eventID string) string {
	return "webhook:" + provider + ":" + eventID
}
