package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const strikeCountPrefix = "moderation:active_strikes:"

// StrikeCountRepo caches per-user active-strike counts. The ledger is the
// source of truth; entries are invalidated on every ledger write and expire
// on their own so a stale value can never outlive the TTL.
type StrikeCountRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewStrikeCountRepo(client *goredis.Client, ttl time.Duration) *StrikeCountRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StrikeCountRepo{client: client, ttl: ttl}
}

func (r *StrikeCountRepo) Get(ctx context.Context, userID int64) (int, bool, error) {
	if r.client == nil || userID <= 0 {
		return 0, false, nil
	}

	value, err := r.client.Get(ctx, strikeCountKey(userID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get cached strike count: %w", err)
	}

	count, err := strconv.Atoi(value)
	if err != nil {
		// Treat a corrupt entry as a miss.
		return 0, false, nil
	}
	return count, true, nil
}

func (r *StrikeCountRepo) Set(ctx context.Context, userID int64, count int) error {
	if r.client == nil || userID <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, strikeCountKey(userID), strconv.Itoa(count), r.ttl).Err(); err != nil {
		return fmt.Errorf("cache strike count: %w", err)
	}
	return nil
}

func (r *StrikeCountRepo) Invalidate(ctx context.Context, userID int64) error {
	if r.client == nil || userID <= 0 {
		return nil
	}

	if err := r.client.Del(ctx, strikeCountKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate strike count: %w", err)
	}
	return nil
}

func strikeCountKey(userID int64) string {
	return strikeCountPrefix + strconv.FormatInt(userID, 10)
}
