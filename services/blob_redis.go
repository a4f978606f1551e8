package services

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

// RedisBlobStore keeps cart blobs as plain Redis strings without expiry.
type RedisBlobStore struct {
	client *redis.Client
}

func NewRedisBlobStore(client *redis.Client) *RedisBlobStore {
	return &RedisBlobStore{client: client}
}

func (r *RedisBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, cartKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *RedisBlobStore) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, cartKeyPrefix+key, data, 0).Err()
}
