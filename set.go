package typedis

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/typedis/codec"
)

// Set binds a Conn, an unordered-collection store key, and a codec. Members
// are compared by their encoded bytes, so the codec should be deterministic
// for membership checks to behave (e.g. codec.MustCBOR with deterministic
// encoding, or plain scalar codecs).
type Set[V any] struct {
	conn  *Conn
	key   string
	codec codec.Codec[V]
	ttl   time.Duration
}

// NewSet builds a Set handle. ttl is the structure's default expiry applied
// when a call passes 0; use NoExpiry per call to opt out.
func NewSet[V any](conn *Conn, key string, c codec.Codec[V], ttl time.Duration) (Set[V], error) {
	if conn == nil {
		return Set[V]{}, fmt.Errorf("typedis: conn is required")
	}
	if key == "" {
		return Set[V]{}, fmt.Errorf("typedis: key is required")
	}
	if c == nil {
		return Set[V]{}, fmt.Errorf("typedis: codec is required")
	}
	return Set[V]{conn: conn, key: key, codec: c, ttl: ttl}, nil
}

// Key returns the store key this handle is bound to.
func (s Set[V]) Key() string { return s.key }

// Add inserts members, refreshes the set's expiry, and returns how many
// were newly added. No members means no round trip.
func (s Set[V]) Add(ctx context.Context, ttl time.Duration, members ...V) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	enc, err := s.encodeAll(members)
	if err != nil {
		return 0, err
	}
	return withExpiry(ctx, s.conn, s.key, s.conn.resolveTTL(s.ttl, ttl), func(ctx context.Context) (int64, error) {
		return s.conn.store.SAdd(ctx, s.key, enc...)
	})
}

// Remove deletes members and returns how many were actually removed.
func (s Set[V]) Remove(ctx context.Context, members ...V) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	enc, err := s.encodeAll(members)
	if err != nil {
		return 0, err
	}
	return s.conn.store.SRem(ctx, s.key, enc...)
}

// Contains reports whether member is in the set.
func (s Set[V]) Contains(ctx context.Context, member V) (bool, error) {
	raw, err := s.codec.Encode(member)
	if err != nil {
		return false, err
	}
	return s.conn.store.SIsMember(ctx, s.key, raw)
}

// Members returns all members, decoded. Order is unspecified.
func (s Set[V]) Members(ctx context.Context) ([]V, error) {
	raws, err := s.conn.store.SMembers(ctx, s.key)
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, len(raws))
	for _, raw := range raws {
		v, err := s.codec.Decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Card returns the set's cardinality (0 when the key is absent).
func (s Set[V]) Card(ctx context.Context) (int64, error) {
	return s.conn.store.SCard(ctx, s.key)
}

// Del removes the whole set key.
func (s Set[V]) Del(ctx context.Context) error {
	return s.conn.store.Del(ctx, s.key)
}

func (s Set[V]) encodeAll(members []V) ([][]byte, error) {
	enc := make([][]byte, len(members))
	for i, m := range members {
		raw, err := s.codec.Encode(m)
		if err != nil {
			return nil, err
		}
		enc[i] = raw
	}
	return enc, nil
}
