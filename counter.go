package typedis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Counter binds a Conn and a numeric store key. Values live in the store as
// decimal strings (the store's native numeric representation), so no codec
// is involved. The clamp operations run as one atomic server-side step:
// apply the delta, compare against the bound, overwrite with the bound if
// violated, and return the final value. A client-side incr/compare/set
// sequence cannot provide that under concurrent callers.
type Counter struct {
	conn *Conn
	key  string
	ttl  time.Duration
}

// NewCounter builds a Counter handle. ttl is the structure's default expiry
// applied when a call passes 0; use NoExpiry per call to opt out.
func NewCounter(conn *Conn, key string, ttl time.Duration) (Counter, error) {
	if conn == nil {
		return Counter{}, fmt.Errorf("typedis: conn is required")
	}
	if key == "" {
		return Counter{}, fmt.Errorf("typedis: key is required")
	}
	return Counter{conn: conn, key: key, ttl: ttl}, nil
}

// Key returns the store key this handle is bound to.
func (c Counter) Key() string { return c.key }

// Get returns (value, true, nil) on hit; (0, false, nil) on miss.
func (c Counter) Get(ctx context.Context) (int64, bool, error) {
	raw, ok, err := c.conn.store.Get(ctx, c.key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("typedis: counter %q holds non-integer value: %w", c.key, err)
	}
	return n, true, nil
}

// GetFloat is Get for float-valued counters.
func (c Counter) GetFloat(ctx context.Context) (float64, bool, error) {
	raw, ok, err := c.conn.store.Get(ctx, c.key)
	if err != nil || !ok {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false, fmt.Errorf("typedis: counter %q holds non-numeric value: %w", c.key, err)
	}
	return f, true, nil
}

// Set overwrites the counter with n and the resolved expiry.
func (c Counter) Set(ctx context.Context, n int64, ttl time.Duration) error {
	return c.conn.store.Set(ctx, c.key, []byte(strconv.FormatInt(n, 10)), c.conn.resolveTTL(c.ttl, ttl))
}

// SetFloat overwrites the counter with f and the resolved expiry. The value
// is rendered as a plain decimal string so it round-trips exactly.
func (c Counter) SetFloat(ctx context.Context, f float64, ttl time.Duration) error {
	return c.conn.store.Set(ctx, c.key, []byte(strconv.FormatFloat(f, 'f', -1, 64)), c.conn.resolveTTL(c.ttl, ttl))
}

// Del removes the key.
func (c Counter) Del(ctx context.Context) error {
	return c.conn.store.Del(ctx, c.key)
}

// IncrBy adds delta (missing keys count from zero), refreshes the expiry,
// and returns the new value.
func (c Counter) IncrBy(ctx context.Context, delta int64, ttl time.Duration) (int64, error) {
	return withExpiry(ctx, c.conn, c.key, c.conn.resolveTTL(c.ttl, ttl), func(ctx context.Context) (int64, error) {
		return c.conn.store.IncrBy(ctx, c.key, delta)
	})
}

// IncrByFloat is IncrBy for float deltas.
func (c Counter) IncrByFloat(ctx context.Context, delta float64, ttl time.Duration) (float64, error) {
	return withExpiry(ctx, c.conn, c.key, c.conn.resolveTTL(c.ttl, ttl), func(ctx context.Context) (float64, error) {
		return c.conn.store.IncrByFloat(ctx, c.key, delta)
	})
}

// IncrByCapped adds delta and clamps the result to at most max, atomically
// on the server. Returns the final (possibly clamped) value.
func (c Counter) IncrByCapped(ctx context.Context, delta, max int64, ttl time.Duration) (int64, error) {
	return withExpiry(ctx, c.conn, c.key, c.conn.resolveTTL(c.ttl, ttl), func(ctx context.Context) (int64, error) {
		return c.conn.store.IncrByClampMax(ctx, c.key, delta, max)
	})
}

// IncrByFloored adds delta and clamps the result to at least min,
// atomically on the server. Returns the final (possibly clamped) value.
// Pass a negative delta to decrement against a floor.
func (c Counter) IncrByFloored(ctx context.Context, delta, min int64, ttl time.Duration) (int64, error) {
	return withExpiry(ctx, c.conn, c.key, c.conn.resolveTTL(c.ttl, ttl), func(ctx context.Context) (int64, error) {
		return c.conn.store.IncrByClampMin(ctx, c.key, delta, min)
	})
}

// IncrByFloatCapped is IncrByCapped for float deltas. Delta and bound cross
// the wire as decimal strings so client and server agree on the value.
func (c Counter) IncrByFloatCapped(ctx context.Context, delta, max float64, ttl time.Duration) (float64, error) {
	return withExpiry(ctx, c.conn, c.key, c.conn.resolveTTL(c.ttl, ttl), func(ctx context.Context) (float64, error) {
		return c.conn.store.IncrByFloatClampMax(ctx, c.key, delta, max)
	})
}

// IncrByFloatFloored is IncrByFloored for float deltas.
func (c Counter) IncrByFloatFloored(ctx context.Context, delta, min float64, ttl time.Duration) (float64, error) {
	return withExpiry(ctx, c.conn, c.key, c.conn.resolveTTL(c.ttl, ttl), func(ctx context.Context) (float64, error) {
		return c.conn.store.IncrByFloatClampMin(ctx, c.key, delta, min)
	})
}
