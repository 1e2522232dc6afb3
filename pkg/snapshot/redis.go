package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots as string values, which suits short-lived
// checkpoints shared between a server and its viewers.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
	codec     Codec
	ttl       time.Duration
}

// NewRedisStore stores values under "<namespace>:<key>". A zero ttl keeps
// them forever.
func NewRedisStore(client redis.UniversalClient, namespace string, codec Codec, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, namespace: namespace, codec: codec, ttl: ttl}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(name string) string {
	return s.namespace + ":" + name
}

func (s *RedisStore) Put(ctx context.Context, key string, snap Snapshot) (int, error) {
	data, err := Encode(snap, s.codec)
	if err != nil {
		return 0, err
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	return len(data), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get %s: %w", key, err)
	}
	return Decode(data)
}

// List scans the namespace; it is linear in the number of keys.
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	root := s.key("")
	var keys []string
	iter := s.client.Scan(ctx, 0, root+prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), root))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
