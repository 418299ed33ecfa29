package typedis

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/typedis/codec"
)

// Hash binds a Conn, a field-addressed (hash) store key, and a codec.
// Immutable capability bundle like String; expiry is per key, not per field,
// so writes refresh the whole hash's TTL.
type Hash[V any] struct {
	conn  *Conn
	key   string
	codec codec.Codec[V]
	ttl   time.Duration
}

// NewHash builds a Hash handle. ttl is the structure's default expiry
// applied when a call passes 0; use NoExpiry per call to opt out.
func NewHash[V any](conn *Conn, key string, c codec.Codec[V], ttl time.Duration) (Hash[V], error) {
	if conn == nil {
		return Hash[V]{}, fmt.Errorf("typedis: conn is required")
	}
	if key == "" {
		return Hash[V]{}, fmt.Errorf("typedis: key is required")
	}
	if c == nil {
		return Hash[V]{}, fmt.Errorf("typedis: codec is required")
	}
	return Hash[V]{conn: conn, key: key, codec: c, ttl: ttl}, nil
}

// Key returns the store key this handle is bound to.
func (h Hash[V]) Key() string { return h.key }

// Get returns (value, true, nil) on hit; (zero, false, nil) when the key or
// the field is absent.
func (h Hash[V]) Get(ctx context.Context, field string) (V, bool, error) {
	var zero V
	raw, ok, err := h.conn.store.HGet(ctx, h.key, field)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := h.codec.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Set writes one field and refreshes the hash's expiry.
func (h Hash[V]) Set(ctx context.Context, field string, v V, ttl time.Duration) error {
	return h.SetAll(ctx, map[string]V{field: v}, ttl)
}

// SetAll writes all given field/value pairs in one call and refreshes the
// hash's expiry. An empty map is a no-op without a store round trip.
func (h Hash[V]) SetAll(ctx context.Context, values map[string]V, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}
	enc, err := h.encodeAll(values)
	if err != nil {
		return err
	}
	_, err = withExpiry(ctx, h.conn, h.key, h.conn.resolveTTL(h.ttl, ttl), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.conn.store.HSet(ctx, h.key, enc)
	})
	return err
}

// Del removes fields from the hash.
func (h Hash[V]) Del(ctx context.Context, fields ...string) error {
	return h.conn.store.HDel(ctx, h.key, fields...)
}

// Exists reports whether field is present.
func (h Hash[V]) Exists(ctx context.Context, field string) (bool, error) {
	return h.conn.store.HExists(ctx, h.key, field)
}

// Len returns the number of fields in the hash (0 when the key is absent).
func (h Hash[V]) Len(ctx context.Context) (int64, error) {
	return h.conn.store.HLen(ctx, h.key)
}

// GetOrSet is single-field cache-aside with the same concurrency contract
// as String.GetOrSet: concurrent misses may both run factory (at-least-once)
// unless Options.SingleFlight collapses them in-process.
func (h Hash[V]) GetOrSet(ctx context.Context, field string, ttl time.Duration, factory func(context.Context) (V, error)) (V, error) {
	var zero V
	if factory == nil {
		return zero, errNilFactory
	}
	if v, ok, err := h.Get(ctx, field); err != nil || ok {
		return v, err
	}
	compute := func() (V, error) {
		v, err := factory(ctx)
		if err != nil {
			return zero, err
		}
		if err := h.Set(ctx, field, v, ttl); err != nil {
			return zero, err
		}
		return v, nil
	}
	if h.conn.flight == nil {
		return compute()
	}
	out, err, _ := h.conn.flight.Do(flightKey[V](h.key+"\x00"+field), func() (any, error) {
		return compute()
	})
	if err != nil {
		return zero, err
	}
	return out.(V), nil
}

// GetOrSetBatch is multi-field cache-aside:
//
//  1. fields are deduplicated preserving first-appearance order;
//  2. one multi-get fetches them all;
//  3. present fields are decoded into the result, absent ones collected in
//     input order;
//  4. factory runs once over exactly the missing fields; fields it leaves
//     out of its result are simply omitted (no synthetic defaults);
//  5. everything factory produced is written back in one multi-set with the
//     resolved expiry (skipped entirely when factory produced nothing);
//  6. the merged mapping is returned.
//
// An empty input returns an empty map with zero store round trips. Store
// and factory failures propagate unchanged; there is no fallback value.
func (h Hash[V]) GetOrSetBatch(ctx context.Context, fields []string, ttl time.Duration, factory func(ctx context.Context, missing []string) (map[string]V, error)) (map[string]V, error) {
	if factory == nil {
		return nil, errNilFactory
	}
	out := make(map[string]V, len(fields))
	if len(fields) == 0 {
		return out, nil
	}

	seen := make(map[string]struct{}, len(fields))
	ordered := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		ordered = append(ordered, f)
	}

	raws, err := h.conn.store.HMGet(ctx, h.key, ordered...)
	if err != nil {
		return nil, err
	}
	var missing []string
	for i, raw := range raws {
		if raw == nil {
			missing = append(missing, ordered[i])
			continue
		}
		v, err := h.codec.Decode(raw)
		if err != nil {
			return nil, err
		}
		out[ordered[i]] = v
	}
	if len(missing) == 0 {
		return out, nil
	}

	produced, err := factory(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(produced) > 0 {
		if err := h.SetAll(ctx, produced, ttl); err != nil {
			return nil, err
		}
	}
	for f, v := range produced {
		out[f] = v
	}
	return out, nil
}

func (h Hash[V]) encodeAll(values map[string]V) (map[string][]byte, error) {
	enc := make(map[string][]byte, len(values))
	for f, v := range values {
		raw, err := h.codec.Encode(v)
		if err != nil {
			return nil, err
		}
		enc[f] = raw
	}
	return enc, nil
}
