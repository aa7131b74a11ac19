// Package cache publishes invalidation events after mutations so caching layers can drop stale views.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Invalidation names the entities a mutation touched
type Invalidation struct {
	Tags       []string  `json:"tags"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Tag helpers keep tag formats consistent between publishers and consumers
func EventTag(id string) string { return "event:" + id }
func PositionTag(id string) string { return "position:" + id }
func AssignmentTag(id string) string { return "assignment:" + id }
func NotificationsTag(id string) string { return "notifications:" + id }
func ProfileTag(id string) string { return "profile:" + id }

// Invalidator is notified after every successful mutation
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string)
}

// Nop ignores invalidations, for deployments that fetch fresh on every request
type Nop struct{}

func (Nop) Invalidate(ctx context.Context, tags ...string) {}

// RedisInvalidator publishes invalidations on a Redis pub/sub channel.
// Publish failures are logged and never fail the mutation.
type RedisInvalidator struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisInvalidator creates a publisher on channel
func NewRedisInvalidator(client *redis.Client, channel string, logger *zap.Logger) *RedisInvalidator {
	return &RedisInvalidator{client: client, channel: channel, logger: logger}
}

// Connect creates a Redis client for addr and verifies the connection
func Connect(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Invalidate publishes the tags as one JSON message
func (r *RedisInvalidator) Invalidate(ctx context.Context, tags ...string) {
	if len(tags) == 0 {
		return
	}

	payload, err := json.Marshal(Invalidation{Tags: tags, OccurredAt: time.Now().UTC()})
	if err != nil {
		r.logger.Warn("Failed to encode invalidation", zap.Error(err))
		return
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("Failed to publish invalidation",
			zap.String("channel", r.channel),
			zap.Strings("tags", tags),
			zap.Error(err))
		return
	}

	r.logger.Debug("Published invalidation", zap.Strings("tags", tags))
}
