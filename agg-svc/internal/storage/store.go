package storage

import (
	"context"
	"fmt"
	"time"

	"tableorder/agg-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

// StatsTTL keeps a week of daily hashes.
const StatsTTL = 7 * 24 * time.Hour

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// DailyStatsKey must match the key order-svc reads.
func DailyStatsKey(date, restaurantID string) string {
	return fmt.Sprintf("stats:daily:%s:%s", date, restaurantID)
}

func statusField(status string) string {
	return "status:" + status
}

func (s *Store) RecordOrderCreated(ctx context.Context, event domain.OrderEvent) error {
	key := DailyStatsKey(event.Day(), event.RestaurantID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, "orders", 1)
		if event.Status != domain.StatusCancelled {
			pipe.HIncrByFloat(ctx, key, "revenue", event.Total)
		}
		pipe.HIncrBy(ctx, key, statusField(event.Status), 1)
		pipe.Expire(ctx, key, StatsTTL)
		return nil
	})
	return err
}

// RecordStatusChange moves the order between status counters. Cancelled
// orders do not count towards revenue.
func (s *Store) RecordStatusChange(ctx context.Context, event domain.OrderEvent) error {
	key := DailyStatsKey(event.Day(), event.RestaurantID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if event.PreviousStatus != "" {
			pipe.HIncrBy(ctx, key, statusField(event.PreviousStatus), -1)
		}
		pipe.HIncrBy(ctx, key, statusField(event.Status), 1)
		switch {
		case event.Status == domain.StatusCancelled && event.PreviousStatus != domain.StatusCancelled:
			pipe.HIncrByFloat(ctx, key, "revenue", -event.Total)
		case event.PreviousStatus == domain.StatusCancelled:
			pipe.HIncrByFloat(ctx, key, "revenue", event.Total)
		}
		pipe.Expire(ctx, key, StatsTTL)
		return nil
	})
	return err
}
