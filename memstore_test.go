package typedis

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/typedis/store"
)

// memStore is an in-memory store.Store for tests. Expiry is checked lazily
// on access; ops counts every round trip so tests can assert call budgets.
// The HyperLogLog commands count exactly instead of estimating, which is a
// valid (if wasteful) implementation of the contract and keeps assertions
// deterministic.
type memStore struct {
	mu     sync.Mutex
	vals   map[string][]byte
	hashes map[string]map[string][]byte
	sets   map[string]map[string]struct{}
	hlls   map[string]map[string]struct{}
	exp    map[string]time.Time // zero/absent => no TTL
	ops    int
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		vals:   make(map[string][]byte),
		hashes: make(map[string]map[string][]byte),
		sets:   make(map[string]map[string]struct{}),
		hlls:   make(map[string]map[string]struct{}),
		exp:    make(map[string]time.Time),
	}
}

// purgeExpired must run with mu held.
func (m *memStore) purgeExpired(key string) {
	t, ok := m.exp[key]
	if !ok || t.IsZero() || time.Now().Before(t) {
		return
	}
	delete(m.vals, key)
	delete(m.hashes, key)
	delete(m.sets, key)
	delete(m.hlls, key)
	delete(m.exp, key)
}

func (m *memStore) setExp(key string, ttl time.Duration) {
	if ttl > 0 {
		m.exp[key] = time.Now().Add(ttl)
	} else {
		delete(m.exp, key)
	}
}

func (m *memStore) opCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ops
}

// ttlSet reports whether key currently carries an expiry.
func (m *memStore) ttlSet(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.exp[key]
	return ok && !t.IsZero()
}

// expireNow force-expires key, simulating lease/TTL lapse.
func (m *memStore) expireNow(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exp[key] = time.Now().Add(-time.Second)
	m.purgeExpired(key)
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.vals[key] = value
	m.setExp(key, ttl)
	return nil
}

func (m *memStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	if _, ok := m.vals[key]; ok {
		return false, nil
	}
	m.vals[key] = value
	m.setExp(key, ttl)
	return true, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	for _, k := range keys {
		delete(m.vals, k)
		delete(m.hashes, k)
		delete(m.sets, k)
		delete(m.hlls, k)
		delete(m.exp, k)
	}
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	if _, ok := m.vals[key]; ok {
		return true, nil
	}
	if _, ok := m.hashes[key]; ok {
		return true, nil
	}
	if _, ok := m.sets[key]; ok {
		return true, nil
	}
	_, ok := m.hlls[key]
	return ok, nil
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	_, v := m.vals[key]
	_, h := m.hashes[key]
	_, s := m.sets[key]
	_, p := m.hlls[key]
	if !v && !h && !s && !p {
		return false, nil
	}
	m.setExp(key, ttl)
	return true, nil
}

func (m *memStore) HGet(_ context.Context, key, field string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	v, ok := m.hashes[key][field]
	return v, ok, nil
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *memStore) HMGet(_ context.Context, key string, fields ...string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	out := make([][]byte, len(fields))
	for i, f := range fields {
		if v, ok := m.hashes[key][f]; ok {
			out[i] = v
		}
	}
	return out, nil
}

func (m *memStore) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func (m *memStore) HExists(_ context.Context, key, field string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	_, ok := m.hashes[key][field]
	return ok, nil
}

func (m *memStore) HLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	return int64(len(m.hashes[key])), nil
}

func (m *memStore) SAdd(_ context.Context, key string, members ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{})
		m.sets[key] = s
	}
	var added int64
	for _, b := range members {
		if _, dup := s[string(b)]; !dup {
			s[string(b)] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (m *memStore) SRem(_ context.Context, key string, members ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	var removed int64
	for _, b := range members {
		if _, ok := m.sets[key][string(b)]; ok {
			delete(m.sets[key], string(b))
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) SIsMember(_ context.Context, key string, member []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	_, ok := m.sets[key][string(member)]
	return ok, nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	out := make([][]byte, 0, len(m.sets[key]))
	for b := range m.sets[key] {
		out = append(out, []byte(b))
	}
	return out, nil
}

func (m *memStore) SCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	return int64(len(m.sets[key])), nil
}

func (m *memStore) PFAdd(_ context.Context, key string, items ...[]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	h, ok := m.hlls[key]
	if !ok {
		h = make(map[string]struct{})
		m.hlls[key] = h
	}
	changed := false
	for _, b := range items {
		if _, dup := h[string(b)]; !dup {
			h[string(b)] = struct{}{}
			changed = true
		}
	}
	return changed, nil
}

func (m *memStore) PFCount(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	union := make(map[string]struct{})
	for _, k := range keys {
		m.purgeExpired(k)
		for b := range m.hlls[k] {
			union[b] = struct{}{}
		}
	}
	return int64(len(union)), nil
}

func (m *memStore) PFMerge(_ context.Context, dst string, srcs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	h, ok := m.hlls[dst]
	if !ok {
		h = make(map[string]struct{})
		m.hlls[dst] = h
	}
	for _, k := range srcs {
		m.purgeExpired(k)
		for b := range m.hlls[k] {
			h[b] = struct{}{}
		}
	}
	return nil
}

func (m *memStore) intVal(key string) int64 {
	if b, ok := m.vals[key]; ok {
		n, _ := strconv.ParseInt(string(b), 10, 64)
		return n
	}
	return 0
}

func (m *memStore) floatVal(key string) float64 {
	if b, ok := m.vals[key]; ok {
		f, _ := strconv.ParseFloat(string(b), 64)
		return f
	}
	return 0
}

func (m *memStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	n := m.intVal(key) + delta
	m.vals[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memStore) IncrByFloat(_ context.Context, key string, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	f := m.floatVal(key) + delta
	m.vals[key] = []byte(strconv.FormatFloat(f, 'f', -1, 64))
	return f, nil
}

func (m *memStore) IncrByClampMax(_ context.Context, key string, delta, max int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	n := m.intVal(key) + delta
	if n > max {
		n = max
	}
	m.vals[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memStore) IncrByClampMin(_ context.Context, key string, delta, min int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	n := m.intVal(key) + delta
	if n < min {
		n = min
	}
	m.vals[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memStore) IncrByFloatClampMax(_ context.Context, key string, delta, max float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	f := m.floatVal(key) + delta
	if f > max {
		f = max
	}
	m.vals[key] = []byte(strconv.FormatFloat(f, 'f', -1, 64))
	return f, nil
}

func (m *memStore) IncrByFloatClampMin(_ context.Context, key string, delta, min float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	f := m.floatVal(key) + delta
	if f < min {
		f = min
	}
	m.vals[key] = []byte(strconv.FormatFloat(f, 'f', -1, 64))
	return f, nil
}

func (m *memStore) DelEquals(_ context.Context, key string, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.purgeExpired(key)
	cur, ok := m.vals[key]
	if !ok || !bytes.Equal(cur, value) {
		return false, nil
	}
	delete(m.vals, key)
	delete(m.exp, key)
	return true, nil
}

func (m *memStore) Close(context.Context) error { return nil }

func newTestConn(t *testing.T, st store.Store, optf func(*Options)) *Conn {
	t.Helper()
	opts := Options{Store: st}
	if optf != nil {
		optf(&opts)
	}
	conn, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return conn
}
