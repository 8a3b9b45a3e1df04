// Package refreshtoken keeps the one active refresh token per identity in
// redis, expiring with the token lifetime.
package refreshtoken

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type TokenRepo struct {
	Client *redis.Client
}

func New(client *redis.Client) *TokenRepo {
	return &TokenRepo{Client: client}
}

func (r *TokenRepo) buildKey(identity string) string {
	return fmt.Sprintf("refresh:%s", identity)
}

func (r *TokenRepo) Save(ctx context.Context, identity, token string, ttl time.Duration) error {
	return r.Client.Set(ctx, r.buildKey(identity), token, ttl).Err()
}

func (r *TokenRepo) Get(ctx context.Context, identity string) (string, error) {
	return r.Client.Get(ctx, r.buildKey(identity)).Result()
}

func (r *TokenRepo) Delete(ctx context.Context, identity string) error {
	return r.Client.Del(ctx, r.buildKey(identity)).Err()
}

// Validate reports whether token is the currently stored refresh token for
// identity.
func (r *TokenRepo) Validate(ctx context.Context, identity, token string) (bool, error) {
	stored, err := r.Get(ctx, identity)
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}
