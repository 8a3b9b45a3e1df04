// Package blacklist marks revoked access tokens in redis until they would
// have expired anyway.
package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Blacklist struct {
	Client *redis.Client
}

func New(client *redis.Client) *Blacklist {
	return &Blacklist{Client: client}
}

func (r *Blacklist) buildKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

func (r *Blacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, r.buildKey(token), "1", ttl).Err()
}

func (r *Blacklist) Remove(ctx context.Context, token string) error {
	return r.Client.Del(ctx, r.buildKey(token)).Err()
}

func (r *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	_, err := r.Client.Get(ctx, r.buildKey(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
