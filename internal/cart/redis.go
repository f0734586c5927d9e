package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps one JSON snapshot per owner under cart:<owner>.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

func cartKey(owner string) string {
	return "cart:" + owner
}

func (r *RedisStorage) Save(ctx context.Context, owner string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cartKey(owner), data, 0).Err()
}

func (r *RedisStorage) Load(ctx context.Context, owner string) ([]byte, error) {
	data, err := r.client.Get(ctx, cartKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisStorage) Delete(ctx context.Context, owner string) error {
	return r.client.Del(ctx, cartKey(owner)).Err()
}
