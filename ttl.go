package typedis

import (
	"context"
	"time"
)

// NoExpiry forces "no expiry" for one call even when the structure or the
// Conn carries a default TTL.
const NoExpiry time.Duration = -1

// resolveTTL picks the expiry for one call: the per-call value wins, then
// the structure default, then the Conn default. 0 means "not specified" at
// each level; the result is 0 ("none") when nothing applies or NoExpiry was
// passed. Resolution happens exactly once per operation.
func (c *Conn) resolveTTL(structTTL, callTTL time.Duration) time.Duration {
	ttl := callTTL
	if ttl == 0 {
		ttl = structTTL
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl <= 0 {
		return 0
	}
	return ttl
}

// withExpiry runs op and, when a TTL was resolved, refreshes key's expiry
// afterwards on the same connection. The refresh is best-effort: the primary
// mutation already succeeded, so an expire failure is logged and swallowed
// rather than failing the call — the data is correct, only its eventual
// expiry is delayed. Failure of op itself propagates unchanged.
func withExpiry[T any](ctx context.Context, c *Conn, key string, ttl time.Duration, op func(context.Context) (T, error)) (T, error) {
	out, err := op(ctx)
	if err != nil {
		return out, err
	}
	if ttl > 0 {
		if _, eerr := c.store.Expire(ctx, key, ttl); eerr != nil {
			c.log.Warn("expire refresh failed", Fields{"key": key, "ttl": ttl, "err": eerr})
		}
	}
	return out, nil
}
