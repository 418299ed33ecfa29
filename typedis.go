package typedis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/typedis/store"
)

// Options tune a Conn. Only Store is required; others have sensible defaults.
type Options struct {
	// Required
	Store store.Store

	Logger     Logger        // if nil, NopLogger is used
	DefaultTTL time.Duration // connection-wide fallback expiry; 0 => none

	// SingleFlight deduplicates concurrent cache-aside misses for the same
	// storage key within this process, so the factory runs once per flight.
	// It does NOT serialize misses across processes: two replicas missing at
	// the same time still both compute and both write (last write wins).
	SingleFlight bool
}

// Conn is a process-wide handle over one logical store target. It is
// immutable after New and safe to share across goroutines; every typed
// structure bound to it round-trips to the store rather than caching
// client-side.
type Conn struct {
	store      store.Store
	log        Logger
	defaultTTL time.Duration
	flight     *singleflight.Group // nil unless Options.SingleFlight
}

// New validates opts and builds a Conn.
func New(opts Options) (*Conn, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("typedis: store is required")
	}
	c := &Conn{
		store:      opts.Store,
		defaultTTL: opts.DefaultTTL,
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	if opts.SingleFlight {
		c.flight = &singleflight.Group{}
	}
	return c, nil
}

// Close releases the underlying store.
func (c *Conn) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}

// flightKey namespaces a singleflight key by the structure's value type.
// Two structures with different V bound to the same store key must never
// share a flight: the shared result could not satisfy both callers' types.
func flightKey[V any](key string) string {
	var zero V
	return fmt.Sprintf("%T\x00%s", zero, key)
}
