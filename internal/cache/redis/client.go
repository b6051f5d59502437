package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/pkg/logger"
	"github.com/linac-qa/backend/pkg/utils"
)

// Client caches trend query results. The cache is strictly optional: every
// caller must degrade to the store when it is unavailable.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// trendPrefix scopes all keys for one unit/energy series so invalidation
// can clear every cached window at once. Energy labels may contain spaces,
// hence the hashing.
func trendPrefix(unitID int64, energy string) string {
	return fmt.Sprintf("trend:%d:%s", unitID, utils.HashString(energy))
}

func trendKey(unitID int64, energy string, since time.Time) string {
	return fmt.Sprintf("%s:%s", trendPrefix(unitID, energy), since.Format("2006-01-02"))
}

func (c *Client) SetTrend(ctx context.Context, unitID int64, energy string, since time.Time, readings []models.OutputReading, ttl time.Duration) error {
	data, err := json.Marshal(readings)
	if err != nil {
		return fmt.Errorf("failed to marshal readings: %w", err)
	}

	err = c.client.Set(ctx, trendKey(unitID, energy, since), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set trend cache: %w", err)
	}

	logger.Debug("Trend cached", zap.Int64("unit_id", unitID), zap.String("energy", energy))
	return nil
}

func (c *Client) GetTrend(ctx context.Context, unitID int64, energy string, since time.Time) ([]models.OutputReading, bool, error) {
	data, err := c.client.Get(ctx, trendKey(unitID, energy, since)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get trend cache: %w", err)
	}

	var readings []models.OutputReading
	if err := json.Unmarshal(data, &readings); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal readings: %w", err)
	}

	logger.Debug("Trend cache hit", zap.Int64("unit_id", unitID), zap.String("energy", energy))
	return readings, true, nil
}

// InvalidateTrend drops every cached window for a unit/energy series,
// called after each new reading so trends stay live.
func (c *Client) InvalidateTrend(ctx context.Context, unitID int64, energy string) error {
	iter := c.client.Scan(ctx, 0, trendPrefix(unitID, energy)+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}
	return nil
}
