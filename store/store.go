// Package store defines the storage abstraction used by typedis.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no prepended or
// appended metadata, no re-encoding, no mutation). If a store performs internal
// transforms (e.g., compression), they MUST be fully reversed.
//
// Implementations must be safe for concurrent use. A miss is (nil, false, nil);
// errors are reserved for IO/remote failures and pass through to the caller
// unchanged — no retries happen at this layer.
//
// The clamp increments and DelEquals carry atomicity requirements: each one
// must apply read-modify-write as a single indivisible step against the store
// (server-side scripting for remote stores, a lock for in-process fakes).
// Client-side incr-then-compare-then-set sequences do not satisfy the
// contract.
package store

import (
	"context"
	"time"
)

// Store is the byte-level command surface typedis needs from a key-value
// store. TTLs <= 0 mean "no expiry" throughout.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores value only if key is absent. Returns true when the write
	// took place.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Del removes keys (best-effort; missing keys are not an error).
	Del(ctx context.Context, keys ...string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Expire sets or refreshes key's TTL. Returns false when key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Hash (field-addressed map) commands.

	// HGet returns (value, true, nil) on hit; (nil, false, nil) when the key
	// or the field is absent.
	HGet(ctx context.Context, key, field string) ([]byte, bool, error)

	// HSet writes all given field/value pairs in one call.
	HSet(ctx context.Context, key string, fields map[string][]byte) error

	// HMGet returns one entry per requested field, in order; absent fields
	// yield a nil slice.
	HMGet(ctx context.Context, key string, fields ...string) ([][]byte, error)

	// HDel removes fields from the hash at key.
	HDel(ctx context.Context, key string, fields ...string) error

	// HExists reports whether field is present in the hash at key.
	HExists(ctx context.Context, key, field string) (bool, error)

	// HLen returns the number of fields in the hash at key (0 when absent).
	HLen(ctx context.Context, key string) (int64, error)

	// Set (unordered member collection) commands.

	// SAdd adds members and returns how many were newly added.
	SAdd(ctx context.Context, key string, members ...[]byte) (int64, error)

	// SRem removes members and returns how many were actually removed.
	SRem(ctx context.Context, key string, members ...[]byte) (int64, error)

	// SIsMember reports whether member is in the set at key.
	SIsMember(ctx context.Context, key string, member []byte) (bool, error)

	// SMembers returns all members of the set at key.
	SMembers(ctx context.Context, key string) ([][]byte, error)

	// SCard returns the cardinality of the set at key (0 when absent).
	SCard(ctx context.Context, key string) (int64, error)

	// Cardinality-estimate (HyperLogLog) commands.

	// PFAdd registers items and reports whether the estimate changed.
	PFAdd(ctx context.Context, key string, items ...[]byte) (bool, error)

	// PFCount returns the estimated cardinality of the union of keys.
	PFCount(ctx context.Context, keys ...string) (int64, error)

	// PFMerge merges srcs into dst.
	PFMerge(ctx context.Context, dst string, srcs ...string) error

	// Numeric commands. Missing keys count from zero. The Clamp variants
	// apply the delta and bound the result in one atomic server-side step,
	// returning the final (possibly clamped) value.

	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	IncrByFloat(ctx context.Context, key string, delta float64) (float64, error)
	IncrByClampMax(ctx context.Context, key string, delta, max int64) (int64, error)
	IncrByClampMin(ctx context.Context, key string, delta, min int64) (int64, error)
	IncrByFloatClampMax(ctx context.Context, key string, delta, max float64) (float64, error)
	IncrByFloatClampMin(ctx context.Context, key string, delta, min float64) (float64, error)

	// DelEquals deletes key only if its current value equals value, as one
	// atomic step. Returns true when the delete took place.
	DelEquals(ctx context.Context, key string, value []byte) (bool, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
