package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fleet-manager/internal/config"
)

// Redis keeps each collection in a hash (key -> document) and its insertion
// order in a sorted set scored by a global sequence.
type Redis struct {
	client *redis.Client
	prefix string
}

var (
	insertScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
local seq = redis.call('INCR', KEYS[3])
redis.call('ZADD', KEYS[2], seq, ARGV[1])
return 1
`)

	updateScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

	deleteScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)
)

func NewRedis(ctx context.Context, cfg *config.Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisWithClient(client, cfg.RedisPrefix), nil
}

// NewRedisWithClient wraps an already connected client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) hashKey(c Collection) string  { return fmt.Sprintf("%s:%s", r.prefix, c) }
func (r *Redis) orderKey(c Collection) string { return fmt.Sprintf("%s:%s:order", r.prefix, c) }
func (r *Redis) seqKey() string               { return fmt.Sprintf("%s:seq", r.prefix) }

func (r *Redis) Insert(ctx context.Context, c Collection, key string, doc []byte) error {
	ok, err := insertScript.Run(ctx, r.client,
		[]string{r.hashKey(c), r.orderKey(c), r.seqKey()},
		key, string(doc),
	).Int()
	if err != nil {
		return fmt.Errorf("redis insert failed: %w", err)
	}
	if ok == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	doc, err := r.client.HGet(ctx, r.hashKey(c), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return doc, nil
}

func (r *Redis) Update(ctx context.Context, c Collection, key string, doc []byte) error {
	ok, err := updateScript.Run(ctx, r.client, []string{r.hashKey(c)}, key, string(doc)).Int()
	if err != nil {
		return fmt.Errorf("redis update failed: %w", err)
	}
	if ok == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, c Collection, key string) error {
	ok, err := deleteScript.Run(ctx, r.client, []string{r.hashKey(c), r.orderKey(c)}, key).Int()
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	if ok == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) List(ctx context.Context, c Collection) ([][]byte, error) {
	keys, err := r.client.ZRange(ctx, r.orderKey(c), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list failed: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := r.client.HMGet(ctx, r.hashKey(c), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list failed: %w", err)
	}

	docs := make([][]byte, 0, len(vals))
	for _, v := range vals {
		// a key deleted between ZRANGE and HMGET comes back nil
		if s, ok := v.(string); ok {
			docs = append(docs, []byte(s))
		}
	}
	return docs, nil
}

func (r *Redis) Count(ctx context.Context, c Collection) (int, error) {
	n, err := r.client.HLen(ctx, r.hashKey(c)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count failed: %w", err)
	}
	return int(n), nil
}
