package typedis

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/typedis/codec"
)

// HyperLogLog binds a Conn, a cardinality-estimate store key, and a codec.
// It counts distinct encoded values approximately in constant space; the
// raw items are not retrievable afterwards. The codec should be
// deterministic so equal values hash equally.
type HyperLogLog[V any] struct {
	conn  *Conn
	key   string
	codec codec.Codec[V]
	ttl   time.Duration
}

// NewHyperLogLog builds a HyperLogLog handle. ttl is the structure's default
// expiry applied when a call passes 0; use NoExpiry per call to opt out.
func NewHyperLogLog[V any](conn *Conn, key string, c codec.Codec[V], ttl time.Duration) (HyperLogLog[V], error) {
	if conn == nil {
		return HyperLogLog[V]{}, fmt.Errorf("typedis: conn is required")
	}
	if key == "" {
		return HyperLogLog[V]{}, fmt.Errorf("typedis: key is required")
	}
	if c == nil {
		return HyperLogLog[V]{}, fmt.Errorf("typedis: codec is required")
	}
	return HyperLogLog[V]{conn: conn, key: key, codec: c, ttl: ttl}, nil
}

// Key returns the store key this handle is bound to.
func (h HyperLogLog[V]) Key() string { return h.key }

// Add registers items, refreshes the key's expiry, and reports whether the
// estimate changed. No items means no round trip.
func (h HyperLogLog[V]) Add(ctx context.Context, ttl time.Duration, items ...V) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	enc := make([][]byte, len(items))
	for i, it := range items {
		raw, err := h.codec.Encode(it)
		if err != nil {
			return false, err
		}
		enc[i] = raw
	}
	return withExpiry(ctx, h.conn, h.key, h.conn.resolveTTL(h.ttl, ttl), func(ctx context.Context) (bool, error) {
		return h.conn.store.PFAdd(ctx, h.key, enc...)
	})
}

// Count returns the estimated number of distinct items added so far.
func (h HyperLogLog[V]) Count(ctx context.Context) (int64, error) {
	return h.conn.store.PFCount(ctx, h.key)
}

// CountWith returns the estimated cardinality of the union of this
// structure and others, without mutating any of them.
func (h HyperLogLog[V]) CountWith(ctx context.Context, others ...HyperLogLog[V]) (int64, error) {
	keys := make([]string, 0, 1+len(others))
	keys = append(keys, h.key)
	for _, o := range others {
		keys = append(keys, o.key)
	}
	return h.conn.store.PFCount(ctx, keys...)
}

// Merge folds sources into this structure and refreshes its expiry.
func (h HyperLogLog[V]) Merge(ctx context.Context, ttl time.Duration, sources ...HyperLogLog[V]) error {
	if len(sources) == 0 {
		return nil
	}
	srcs := make([]string, len(sources))
	for i, o := range sources {
		srcs[i] = o.key
	}
	_, err := withExpiry(ctx, h.conn, h.key, h.conn.resolveTTL(h.ttl, ttl), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.conn.store.PFMerge(ctx, h.key, srcs...)
	})
	return err
}

// Del removes the key.
func (h HyperLogLog[V]) Del(ctx context.Context) error {
	return h.conn.store.Del(ctx, h.key)
}
