package pin

import (
	"context"
	"time"

	"github.com/microsolutions/showcase/internal/pkg/redis"
	gocache "github.com/patrickmn/go-cache"
)

// State is the attempt history of one client.
type State struct {
	Failures    int       `json:"failures"`
	LockedUntil time.Time `json:"locked_until"`
}

// Store keeps attempt state per client key. Entries expire after ttl.
type Store interface {
	Get(ctx context.Context, key string) (State, error)
	Put(ctx context.Context, key string, st State, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const redisKeyPrefix = "showcase:pin:"

// RedisStore shares lockout state between instances.
type RedisStore struct{ client *redis.Client }

func NewRedisStore(client *redis.Client) *RedisStore { return &RedisStore{client: client} }

func (s *RedisStore) Get(ctx context.Context, key string) (State, error) {
	var st State
	_, err := s.client.GetJSON(ctx, redisKeyPrefix+key, &st)
	return st, err
}

func (s *RedisStore) Put(ctx context.Context, key string, st State, ttl time.Duration) error {
	return s.client.SetJSON(ctx, redisKeyPrefix+key, st, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key)
}

// MemoryStore keeps lockout state in process.
type MemoryStore struct{ c *gocache.Cache }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(time.Hour, 10*time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (State, error) {
	if v, ok := s.c.Get(key); ok {
		return v.(State), nil
	}
	return State{}, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, st State, ttl time.Duration) error {
	s.c.Set(key, st, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}
