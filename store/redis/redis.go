// Package redis implements store.Store on top of go-redis.
//
// The clamp increments and DelEquals run as server-side Lua scripts through
// redis.NewScript (EVALSHA with transparent EVAL fallback), so each one is a
// single atomic step on the server. Float deltas and bounds cross the wire as
// decimal strings to avoid precision drift between client and server.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/typedis/store"
)

var ErrNilClient = errors.New("redis store: nil client")

// SET with KEEPTTL so clamping never silently drops an expiry the key
// already carries; expiry refresh is a separate concern of the caller.
var (
	incrClampMaxScript = goredis.NewScript(`
local v = redis.call('INCRBY', KEYS[1], ARGV[1])
if v > tonumber(ARGV[2]) then
	redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
	v = tonumber(ARGV[2])
end
return v`)

	incrClampMinScript = goredis.NewScript(`
local v = redis.call('INCRBY', KEYS[1], ARGV[1])
if v < tonumber(ARGV[2]) then
	redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
	v = tonumber(ARGV[2])
end
return v`)

	incrFloatClampMaxScript = goredis.NewScript(`
local v = redis.call('INCRBYFLOAT', KEYS[1], ARGV[1])
if tonumber(v) > tonumber(ARGV[2]) then
	redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
	return ARGV[2]
end
return v`)

	incrFloatClampMinScript = goredis.NewScript(`
local v = redis.call('INCRBYFLOAT', KEYS[1], ARGV[1])
if tonumber(v) < tonumber(ARGV[2]) then
	redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
	return ARGV[2]
end
return v`)

	delEqualsScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0`)
)

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ store.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0 // non-positive TTL means "no expiry" per store contract
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0
	}
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (s *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

func (s *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.Expire(ctx, key, ttl).Result()
}

func (s *Redis) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	b, err := s.rdb.HGet(ctx, key, field).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Redis) HSet(ctx context.Context, key string, fields map[string][]byte) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]interface{}, 0, 2*len(fields))
	for f, v := range fields {
		args = append(args, f, v)
	}
	return s.rdb.HSet(ctx, key, args...).Err()
}

func (s *Redis) HMGet(ctx context.Context, key string, fields ...string) ([][]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			// absent field; leave nil
		case string:
			out[i] = []byte(vv)
		case []byte:
			out[i] = vv
		}
	}
	return out, nil
}

func (s *Redis) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.rdb.HDel(ctx, key, fields...).Err()
}

func (s *Redis) HExists(ctx context.Context, key, field string) (bool, error) {
	return s.rdb.HExists(ctx, key, field).Result()
}

func (s *Redis) HLen(ctx context.Context, key string) (int64, error) {
	return s.rdb.HLen(ctx, key).Result()
}

func (s *Redis) SAdd(ctx context.Context, key string, members ...[]byte) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	return s.rdb.SAdd(ctx, key, byteArgs(members)...).Result()
}

func (s *Redis) SRem(ctx context.Context, key string, members ...[]byte) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	return s.rdb.SRem(ctx, key, byteArgs(members)...).Result()
}

func (s *Redis) SIsMember(ctx context.Context, key string, member []byte) (bool, error) {
	return s.rdb.SIsMember(ctx, key, member).Result()
}

func (s *Redis) SMembers(ctx context.Context, key string) ([][]byte, error) {
	vals, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (s *Redis) SCard(ctx context.Context, key string) (int64, error) {
	return s.rdb.SCard(ctx, key).Result()
}

func (s *Redis) PFAdd(ctx context.Context, key string, items ...[]byte) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	n, err := s.rdb.PFAdd(ctx, key, byteArgs(items)...).Result()
	return n > 0, err
}

func (s *Redis) PFCount(ctx context.Context, keys ...string) (int64, error) {
	return s.rdb.PFCount(ctx, keys...).Result()
}

func (s *Redis) PFMerge(ctx context.Context, dst string, srcs ...string) error {
	return s.rdb.PFMerge(ctx, dst, srcs...).Err()
}

func (s *Redis) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.rdb.IncrBy(ctx, key, delta).Result()
}

func (s *Redis) IncrByFloat(ctx context.Context, key string, delta float64) (float64, error) {
	return s.rdb.IncrByFloat(ctx, key, delta).Result()
}

func (s *Redis) IncrByClampMax(ctx context.Context, key string, delta, max int64) (int64, error) {
	return incrClampMaxScript.Run(ctx, s.rdb, []string{key}, delta, max).Int64()
}

func (s *Redis) IncrByClampMin(ctx context.Context, key string, delta, min int64) (int64, error) {
	return incrClampMinScript.Run(ctx, s.rdb, []string{key}, delta, min).Int64()
}

func (s *Redis) IncrByFloatClampMax(ctx context.Context, key string, delta, max float64) (float64, error) {
	return runFloatScript(ctx, s.rdb, incrFloatClampMaxScript, key, delta, max)
}

func (s *Redis) IncrByFloatClampMin(ctx context.Context, key string, delta, min float64) (float64, error) {
	return runFloatScript(ctx, s.rdb, incrFloatClampMinScript, key, delta, min)
}

func (s *Redis) DelEquals(ctx context.Context, key string, value []byte) (bool, error) {
	n, err := delEqualsScript.Run(ctx, s.rdb, []string{key}, value).Int64()
	return n > 0, err
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func byteArgs(bs [][]byte) []interface{} {
	out := make([]interface{}, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

func runFloatScript(ctx context.Context, rdb goredis.UniversalClient, script *goredis.Script, key string, delta, bound float64) (float64, error) {
	res, err := script.Run(ctx, rdb, []string{key}, floatArg(delta), floatArg(bound)).Text()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(res, 64)
}

// floatArg renders a float as a plain decimal string. INCRBYFLOAT rejects
// exponent notation, and a decimal round trip keeps client and server from
// drifting on formatting.
func floatArg(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
