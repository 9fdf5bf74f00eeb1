package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// keyGrace keeps an expired key around long enough for Lookup to report
// ErrTokenExpired instead of ErrTokenInvalid.
const keyGrace = 24 * time.Hour

// KeyRepository stores session keys as hashes.
// Key format: userkey:<key_id> with fields user_id and expires_at (unix seconds).
type KeyRepository struct {
	client *redis.Client
}

func NewKeyRepository(client *redis.Client) *KeyRepository {
	return &KeyRepository{client: client}
}

// Save writes the key and resets its TTL to the expiry plus keyGrace.
func (r *KeyRepository) Save(ctx context.Context, key *domain.UserKey) error {
	k := keyName(key.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k,
			"user_id", key.UserID,
			"expires_at", strconv.FormatInt(key.ExpiresAt.Unix(), 10),
		)
		pipe.ExpireAt(ctx, k, key.ExpiresAt.Add(keyGrace))
		return nil
	})
	if err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	return nil
}

func (r *KeyRepository) Find(ctx context.Context, id string) (*domain.UserKey, error) {
	fields, err := r.client.HGetAll(ctx, keyName(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("find key: %w", err)
	}
	return decodeKey(id, fields)
}

func (r *KeyRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, keyName(id)).Result()
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	if n == 0 {
		return domain.ErrTokenInvalid
	}
	return nil
}

func keyName(id string) string {
	return "userkey:" + id
}

// decodeKey rebuilds a key from its hash fields. An empty hash means the key
// is unknown or already collected.
func decodeKey(id string, fields map[string]string) (*domain.UserKey, error) {
	if len(fields) == 0 {
		return nil, domain.ErrTokenInvalid
	}
	userID := fields["user_id"]
	if userID == "" {
		return nil, errors.New("find key: missing user_id")
	}
	exp, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("find key: bad expires_at: %w", err)
	}
	return &domain.UserKey{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}, nil
}
