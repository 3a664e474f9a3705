package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type rds struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a Cache backed by the Redis server at the given URL
// (e.g. redis://localhost:6379/0).
func NewRedis(url string, ttl time.Duration) (Cache, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse redis url")
	}

	return &rds{
		client: redis.NewClient(options),
		ttl:    ttl,
	}, nil
}

func (r *rds) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "could not get cached value")
	}
	return v, true, nil
}

// Set stores the value and tracks its key in the namespace set so Flush can find it.
func (r *rds) Set(ctx context.Context, key string, value []byte) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, value, r.ttl)
	pipe.SAdd(ctx, index(namespaceOf(key)), key)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "could not cache value")
}

func (r *rds) Flush(ctx context.Context, namespace string) error {
	keys, err := r.client.SMembers(ctx, index(namespace)).Result()
	if err != nil {
		return errors.Wrap(err, "could not list cached keys")
	}

	pipe := r.client.Pipeline()
	pipe.Incr(ctx, generation(namespace))
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, index(namespace))
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "could not flush cache")
}

func (r *rds) Generation(ctx context.Context, namespace string) (uint64, error) {
	n, err := r.client.Get(ctx, generation(namespace)).Uint64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, errors.Wrap(err, "could not get cache generation")
	}
	return n, nil
}

// Close closes the underlying Redis client.
func (r *rds) Close() error {
	return r.client.Close()
}

func index(namespace string) string {
	return "cache:" + namespace
}

func generation(namespace string) string {
	return index(namespace) + ":generation"
}
