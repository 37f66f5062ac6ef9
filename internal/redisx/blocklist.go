package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blocklist marks bearer tokens as revoked until they would have expired
// anyway. Logout and refresh write here; the auth middleware reads it.
type Blocklist struct {
	RDB *redis.Client
}

func (b Blocklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return b.RDB.Set(ctx, fmt.Sprintf(KeyTokenRevoked, jti), "1", ttl).Err()
}

func (b Blocklist) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.RDB.Exists(ctx, fmt.Sprintf(KeyTokenRevoked, jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
