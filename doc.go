// Package typedis is a typed client layer over a remote key-value store.
// It adds per-type serialization, cache-aside reads with TTL management,
// atomic server-side clamp counters, and a lease-based distributed lock on
// top of a minimal store abstraction.
//
// Components:
//   - store.Store: the byte-level command surface (see store/redis for the
//     go-redis implementation).
//   - codec.Codec[V]: (de)serializes V <-> []byte (JSON, Msgpack, CBOR,
//     Protobuf, raw).
//   - Conn: shared immutable handle bundling a Store, a Logger, and a
//     default TTL.
//   - String[V], Hash[V], Set[V], HyperLogLog[V], Counter: immutable
//     per-key capability bundles. Nothing is cached client-side; every
//     read and write round-trips to the store.
//   - Lock: conditional-set lease with token-checked conditional release.
//
// Expiry resolves once per call: the per-call TTL wins, then the
// structure's default, then the Conn's default, else none; NoExpiry opts
// out explicitly. Mutations succeed even when the follow-up expiry refresh
// fails — the refresh is logged housekeeping, never a reason to fail a
// write that already happened.
//
// Cache-aside usage:
//
//	users, _ := typedis.NewHash[User](conn, "users", codec.JSON[User]{}, time.Hour)
//	u, err := users.GetOrSet(ctx, id, 0, func(ctx context.Context) (User, error) {
//		return loadUser(ctx, id)
//	})
//
// Concurrent misses on the same key may each run the factory and each
// write back (last write wins); see Options.SingleFlight for in-process
// deduplication.
package typedis
