package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLockValue    = "LOCK"
	idemResultPrefix = "RES:"
)

type IdemState int

const (
	// IdemAcquired means the caller owns the key and must SaveResult or Release.
	IdemAcquired IdemState = iota
	// IdemReplay means a stored response exists for the key.
	IdemReplay
	// IdemInProgress means another request holds the key.
	IdemInProgress
)

// IdempotencyStore remembers responses of non-idempotent requests keyed by
// the client's Idempotency-Key.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// Begin either replays a stored payload or takes the key for lockTTL.
func (s *IdempotencyStore) Begin(ctx context.Context, key string, lockTTL time.Duration) (IdemState, string, error) {
	if payload, ok, err := s.GetResult(ctx, key); err != nil {
		return IdemInProgress, "", err
	} else if ok {
		return IdemReplay, payload, nil
	}

	locked, err := s.rdb.SetNX(ctx, key, idemLockValue, lockTTL).Result()
	if err != nil {
		return IdemInProgress, "", err
	}
	if locked {
		return IdemAcquired, "", nil
	}

	// Lost the race; the winner may have finished in between.
	if payload, ok, err := s.GetResult(ctx, key); err == nil && ok {
		return IdemReplay, payload, nil
	}

	return IdemInProgress, "", nil
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, idemResultPrefix+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if strings.HasPrefix(v, idemResultPrefix) {
		return strings.TrimPrefix(v, idemResultPrefix), true, nil
	}

	return "", false, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
