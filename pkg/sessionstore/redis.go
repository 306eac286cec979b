package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for the Redis-backed marker
// store.
type RedisConfig struct {
	ConnectionURL  string        `env:"SESSION_REDIS_URL,required"`
	Key            string        `env:"SESSION_REDIS_KEY" envDefault:"authkit:session_marker"`
	ConnectTimeout time.Duration `env:"SESSION_REDIS_CONNECT_TIMEOUT" envDefault:"5s"`
	RetryAttempts  int           `env:"SESSION_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"SESSION_REDIS_RETRY_INTERVAL" envDefault:"5s"`
}

// ConnectRedis establishes a Redis connection, retrying a configurable
// number of times before giving up.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	for i := 0; i < cfg.RetryAttempts; i++ {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		default:
			time.Sleep(cfg.RetryInterval)
		}
	}

	return nil, ErrConnectionFailed
}

// RedisStore implements Store on a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed marker store using the key from
// the config.
func NewRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	return &RedisStore{client: client, key: cfg.Key}
}

// Get returns the stored identity ID, or ErrNoMarker if none is set.
func (s *RedisStore) Get(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoMarker
		}
		return "", errors.Join(ErrStoreFailed, err)
	}
	return id, nil
}

// Set stores the identity ID, replacing any previous marker.
func (s *RedisStore) Set(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, s.key, id, 0).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Clear removes the marker.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}
