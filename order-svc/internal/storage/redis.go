package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tableorder/order-svc/internal/cart"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/service"

	"github.com/redis/go-redis/v9"
)

type RedisCartStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{Client: client, TTL: ttl}
}

// CartKey scopes a session cart to the customer who owns it.
func (s *RedisCartStore) CartKey(customerID, session string) string {
	return "cart:" + customerID + ":" + session
}

// GetCart returns an empty cart for an unknown or expired session.
func (s *RedisCartStore) GetCart(ctx context.Context, customerID, session string) (*cart.Cart, error) {
	raw, err := s.Client.Get(ctx, s.CartKey(customerID, session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &cart.Cart{}, nil
	}
	if err != nil {
		return nil, err
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &c, nil
}

// SaveCart refreshes the TTL on every write; an empty cart is removed.
func (s *RedisCartStore) SaveCart(ctx context.Context, customerID, session string, c *cart.Cart) error {
	key := s.CartKey(customerID, session)
	if c.IsEmpty() && c.Notes == "" && c.TableNumber == "" {
		return s.Client.Del(ctx, key).Err()
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key, payload, s.TTL).Err()
}

type RedisRevocations struct {
	Client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{Client: client}
}

func (r *RedisRevocations) key(tokenID string) string {
	return "session:revoked:" + tokenID
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.Client.Set(ctx, r.key(tokenID), "1", ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	res, err := r.Client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return res > 0, nil
}

// RedisStatsReader reads the daily hashes maintained by agg-svc.
type RedisStatsReader struct {
	Client *redis.Client
}

func NewRedisStatsReader(client *redis.Client) *RedisStatsReader {
	return &RedisStatsReader{Client: client}
}

func DailyStatsKey(date, restaurantID string) string {
	return "stats:daily:" + date + ":" + restaurantID
}

func (r *RedisStatsReader) DailyStats(ctx context.Context, restaurantID, date string) (*domain.DailyStats, error) {
	fields, err := r.Client.HGetAll(ctx, DailyStatsKey(date, restaurantID)).Result()
	if err != nil {
		return nil, err
	}

	stats := &domain.DailyStats{
		RestaurantID: restaurantID,
		Date:         date,
		ByStatus:     map[string]int{},
	}
	for field, value := range fields {
		switch field {
		case "orders":
			stats.Orders, _ = strconv.Atoi(value)
		case "revenue":
			stats.Revenue, _ = strconv.ParseFloat(value, 64)
		default:
			if status, ok := strings.CutPrefix(field, "status:"); ok {
				stats.ByStatus[status], _ = strconv.Atoi(value)
			}
		}
	}
	return stats, nil
}

var (
	_ service.CartStore   = (*RedisCartStore)(nil)
	_ service.StatsReader = (*RedisStatsReader)(nil)
)
