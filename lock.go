package typedis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Lock is a lease-based distributed mutex over one store key. Acquisition
// is a conditional create (set-if-absent) of a fresh ownership token with
// the lease as TTL; the lease is the sole timeout mechanism — there is no
// client-side renewal or watchdog. The token is generated anew for every
// attempt so a stale holder can never release a lease someone else
// re-acquired after expiry: release is an atomic delete-if-token-matches.
//
// A Lock talks to the Conn directly with its token value; codecs are not
// involved.
type Lock struct {
	conn     *Conn
	key      string
	token    string
	lease    time.Duration
	acquired bool
	released bool
}

// AcquireLock attempts to take the lease on key. Contention is a normal
// outcome, not an error: inspect Acquired() on the returned handle. The
// error return is reserved for argument and transport failures.
func AcquireLock(ctx context.Context, conn *Conn, key string, lease time.Duration) (*Lock, error) {
	if conn == nil {
		return nil, fmt.Errorf("typedis: conn is required")
	}
	if key == "" {
		return nil, fmt.Errorf("typedis: key is required")
	}
	if lease <= 0 {
		return nil, fmt.Errorf("typedis: lease must be positive")
	}
	l := &Lock{
		conn:  conn,
		key:   key,
		token: newLockToken(),
		lease: lease,
	}
	ok, err := conn.store.SetNX(ctx, key, []byte(l.token), lease)
	if err != nil {
		return nil, err
	}
	l.acquired = ok
	return l, nil
}

// AcquireLockChecked composes AcquireLock with Check: it either returns an
// acquired lock or an error wrapping ErrAlreadyLocked. The failed attempt
// is released before the error propagates, so no resource leaks out of the
// failure path.
func AcquireLockChecked(ctx context.Context, conn *Conn, key string, lease time.Duration) (*Lock, error) {
	l, err := AcquireLock(ctx, conn, key, lease)
	if err != nil {
		return nil, err
	}
	if err := l.Check(); err != nil {
		l.Release(ctx)
		return nil, err
	}
	return l, nil
}

// Acquired reports whether this attempt obtained the lease.
func (l *Lock) Acquired() bool { return l.acquired }

// Key returns the store key this lock contends on.
func (l *Lock) Key() string { return l.key }

// Check returns an AlreadyLockedError when the lease was not obtained, for
// callers that need to fail fast instead of branching on Acquired.
func (l *Lock) Check() error {
	if !l.acquired {
		return &AlreadyLockedError{Key: l.key}
	}
	return nil
}

// Release gives the lease back. It is idempotent (repeat calls are no-ops)
// and best-effort: it never fails the caller. The delete is conditional on
// the stored value still being this instance's token, so releasing after
// the lease expired and someone else re-acquired quietly does nothing.
func (l *Lock) Release(ctx context.Context) {
	if l == nil || l.released {
		return
	}
	l.released = true
	if !l.acquired {
		return
	}
	ok, err := l.conn.store.DelEquals(ctx, l.key, []byte(l.token))
	if err != nil {
		l.conn.log.Warn("lock release failed", Fields{"key": l.key, "err": err})
		return
	}
	if !ok {
		l.conn.log.Debug("lock release skipped: token mismatch (lease expired and re-acquired?)", Fields{"key": l.key})
	}
}

// newLockToken returns a value unique to one acquisition attempt.
func newLockToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// rand failure is near-impossible; a high-resolution timestamp
		// still distinguishes attempts well enough for a lease token.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b[:])
}
