package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "polycheck:"

// RedisStore implements Store on a Redis keyspace. Keys are laid out as
// <prefix><namespace>:<key>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to the Redis instance at url and verifies it with PING.
func NewRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "redis: parse url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "redis: ping")
	}
	return NewRedisFromClient(client, DefaultRedisPrefix), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(ns Namespace, key string) string {
	return s.prefix + string(ns) + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, ns Namespace, key string) (json.RawMessage, error) {
	b, err := s.client.Get(ctx, s.key(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get %s/%s", ns, key)
	}
	return json.RawMessage(b), nil
}

func (s *RedisStore) Put(ctx context.Context, ns Namespace, key string, value json.RawMessage) error {
	err := s.client.Set(ctx, s.key(ns, key), []byte(value), 0).Err()
	return eris.Wrapf(err, "redis: put %s/%s", ns, key)
}

func (s *RedisStore) Delete(ctx context.Context, ns Namespace, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(ns, key)).Result()
	if err != nil {
		return false, eris.Wrapf(err, "redis: delete %s/%s", ns, key)
	}
	return n > 0, nil
}

func (s *RedisStore) List(ctx context.Context, ns Namespace) ([]Record, error) {
	nsPrefix := s.key(ns, "")
	var keys []string
	iter := s.client.Scan(ctx, 0, nsPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, eris.Wrapf(err, "redis: scan %s", ns)
	}
	sort.Strings(keys)

	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		b, err := s.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // deleted between SCAN and GET
		}
		if err != nil {
			return nil, eris.Wrapf(err, "redis: get %s", k)
		}
		out = append(out, Record{Key: strings.TrimPrefix(k, nsPrefix), Value: json.RawMessage(b)})
	}
	return out, nil
}

func (s *RedisStore) Migrate(context.Context) error { return nil }

func (s *RedisStore) Close() error {
	return s.client.Close()
}
