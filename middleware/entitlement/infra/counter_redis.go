package infra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"entitlement-gateway/middleware/entitlement/domain"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore guarda o contador de buscas por sessão no Redis, compartilhado
// entre várias instâncias do gateway. O valor é uma string decimal com TTL de sessão.
type RedisCounterStore struct {
	rdb redis.UniversalClient

	prefix string
	ttl    time.Duration
}

// Valor ausente, inválido ou negativo conta como 0. O TTL é renovado a cada incremento.
var redisIncrScript = redis.NewScript(`
local v = tonumber(redis.call("GET", KEYS[1]))
if not v or v < 0 then
  v = 0
end
v = math.floor(v) + 1
local ttl = tonumber(ARGV[1])
if ttl and ttl > 0 then
  redis.call("SET", KEYS[1], tostring(v), "PX", ttl)
else
  redis.call("SET", KEYS[1], tostring(v))
end
return v
`)

// Como redisIncrScript, mas só incrementa abaixo de ARGV[2]. Retorna {valor, incrementou}.
var redisConsumeScript = redis.NewScript(`
local v = tonumber(redis.call("GET", KEYS[1]))
if not v or v < 0 then
  v = 0
end
v = math.floor(v)
if v >= tonumber(ARGV[2]) then
  return {v, 0}
end
v = v + 1
local ttl = tonumber(ARGV[1])
if ttl and ttl > 0 then
  redis.call("SET", KEYS[1], tostring(v), "PX", ttl)
else
  redis.call("SET", KEYS[1], tostring(v))
end
return {v, 1}
`)

type RedisCounterOption func(*RedisCounterStore)

func WithCounterPrefix(prefix string) RedisCounterOption {
	return func(s *RedisCounterStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithCounterTTL(d time.Duration) RedisCounterOption {
	return func(s *RedisCounterStore) { s.ttl = d }
}

func NewRedisCounterStore(rdb redis.UniversalClient, opts ...RedisCounterOption) *RedisCounterStore {
	s := &RedisCounterStore{
		rdb:    rdb,
		prefix: "entitlement:session",
		ttl:    30 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL é a duração de sessão gravada a cada incremento.
func (s *RedisCounterStore) TTL() time.Duration { return s.ttl }

func (s *RedisCounterStore) key(k domain.SessionKey) string {
	return s.prefix + ":" + string(k) + ":" + domain.GuestSearchCountKey
}

func (s *RedisCounterStore) Get(ctx context.Context, k domain.SessionKey) (int, error) {
	v, err := s.rdb.Get(ctx, s.key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get guest counter: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

func (s *RedisCounterStore) Incr(ctx context.Context, k domain.SessionKey) (int, error) {
	res, err := redisIncrScript.Run(ctx, s.rdb, []string{s.key(k)}, s.ttl.Milliseconds()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr guest counter: %w", err)
	}
	n, err := scriptInt(res)
	if err != nil {
		return 0, fmt.Errorf("redis incr guest counter: %w", err)
	}
	return n, nil
}

// Consume implementa domain.CounterStore com um único script Lua (atômico no Redis).
func (s *RedisCounterStore) Consume(ctx context.Context, k domain.SessionKey, limit int) (int, bool, error) {
	res, err := redisConsumeScript.Run(ctx, s.rdb, []string{s.key(k)}, s.ttl.Milliseconds(), limit).Result()
	if err != nil {
		return 0, false, fmt.Errorf("redis consume guest search: %w", err)
	}
	pair, ok := res.([]interface{})
	if !ok || len(pair) != 2 {
		return 0, false, fmt.Errorf("redis consume guest search: unexpected script result %T", res)
	}
	n, err := scriptInt(pair[0])
	if err != nil {
		return 0, false, fmt.Errorf("redis consume guest search: %w", err)
	}
	inc, err := scriptInt(pair[1])
	if err != nil {
		return 0, false, fmt.Errorf("redis consume guest search: %w", err)
	}
	return n, inc == 1, nil
}

func scriptInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case int64:
		return int(x), nil
	case string:
		return strconv.Atoi(x)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", v)
	}
}

func (s *RedisCounterStore) Reset(ctx context.Context, k domain.SessionKey) error {
	if err := s.rdb.Del(ctx, s.key(k)).Err(); err != nil {
		return fmt.Errorf("redis reset guest counter: %w", err)
	}
	return nil
}
