package typedis

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/typedis/codec"
)

// String binds a Conn, a scalar store key, and a codec. It is an immutable
// capability bundle: construct one per call site, copy it freely, and share
// nothing — every operation round-trips to the store.
type String[V any] struct {
	conn  *Conn
	key   string
	codec codec.Codec[V]
	ttl   time.Duration // structure default; 0 => fall through to Conn default
}

// NewString builds a String handle. ttl is the structure's default expiry
// applied when a call passes 0; use NoExpiry per call to opt out.
func NewString[V any](conn *Conn, key string, c codec.Codec[V], ttl time.Duration) (String[V], error) {
	if conn == nil {
		return String[V]{}, fmt.Errorf("typedis: conn is required")
	}
	if key == "" {
		return String[V]{}, fmt.Errorf("typedis: key is required")
	}
	if c == nil {
		return String[V]{}, fmt.Errorf("typedis: codec is required")
	}
	return String[V]{conn: conn, key: key, codec: c, ttl: ttl}, nil
}

// Key returns the store key this handle is bound to.
func (s String[V]) Key() string { return s.key }

// Get returns (value, true, nil) on hit; (zero, false, nil) on miss.
func (s String[V]) Get(ctx context.Context) (V, bool, error) {
	var zero V
	raw, ok, err := s.conn.store.Get(ctx, s.key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := s.codec.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Set writes v with the resolved expiry (per-call ttl, else the structure
// default, else the Conn default). The expiry rides on the write itself.
func (s String[V]) Set(ctx context.Context, v V, ttl time.Duration) error {
	raw, err := s.codec.Encode(v)
	if err != nil {
		return err
	}
	return s.conn.store.Set(ctx, s.key, raw, s.conn.resolveTTL(s.ttl, ttl))
}

// Del removes the key.
func (s String[V]) Del(ctx context.Context) error {
	return s.conn.store.Del(ctx, s.key)
}

// Exists reports whether the key is present.
func (s String[V]) Exists(ctx context.Context) (bool, error) {
	return s.conn.store.Exists(ctx, s.key)
}

// GetOrSet is cache-aside over one key: on a hit the stored value is
// decoded and returned and factory never runs; on a miss factory produces
// the value, which is written back with the resolved expiry and returned.
//
// Concurrency contract: there is no re-read between miss detection and
// write-back, so two concurrent misses may both run factory and both write.
// Last write wins and every caller still gets a valid value (at-least-once,
// not exactly-once). Options.SingleFlight collapses concurrent misses
// within one process; across processes the contract is unchanged.
func (s String[V]) GetOrSet(ctx context.Context, ttl time.Duration, factory func(context.Context) (V, error)) (V, error) {
	var zero V
	if factory == nil {
		return zero, errNilFactory
	}
	if v, ok, err := s.Get(ctx); err != nil || ok {
		return v, err
	}
	compute := func() (V, error) {
		v, err := factory(ctx)
		if err != nil {
			return zero, err
		}
		if err := s.Set(ctx, v, ttl); err != nil {
			return zero, err
		}
		return v, nil
	}
	if s.conn.flight == nil {
		return compute()
	}
	out, err, _ := s.conn.flight.Do(flightKey[V](s.key), func() (any, error) {
		return compute()
	})
	if err != nil {
		return zero, err
	}
	return out.(V), nil
}
