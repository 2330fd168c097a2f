package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

const availabilityKeyPrefix = "availability:date:"

// RedisAvailabilityCache implements AvailabilityCache backed by Redis.
// The TTL is short: the cache only has to absorb read bursts between
// writes, correctness always comes from PostgreSQL.
type RedisAvailabilityCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisAvailabilityCache creates a new Redis availability cache
func NewRedisAvailabilityCache(client redis.Cmdable, ttl time.Duration) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot for a date, or nil on a cache miss
func (c *RedisAvailabilityCache) Get(ctx context.Context, dateID string) (*DateAvailability, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.availability.get")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", dateID))

	data, err := c.client.Get(ctx, availabilityKey(dateID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.Bool("cache_hit", false))
			span.SetStatus(codes.Ok, "")
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read availability cache: %w", err)
	}

	var availability DateAvailability
	if err := json.Unmarshal(data, &availability); err != nil {
		// A corrupt entry behaves like a miss
		span.RecordError(err)
		span.SetStatus(codes.Ok, "")
		return nil, nil
	}

	span.SetAttributes(attribute.Bool("cache_hit", true))
	span.SetStatus(codes.Ok, "")
	return &availability, nil
}

// Set stores an availability snapshot with the cache TTL
func (c *RedisAvailabilityCache) Set(ctx context.Context, availability *DateAvailability) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.availability.set")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", availability.DateID))

	data, err := json.Marshal(availability)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to encode availability: %w", err)
	}

	if err := c.client.Set(ctx, availabilityKey(availability.DateID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to write availability cache: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Invalidate drops the cached snapshot for a date
func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, dateID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.availability.invalidate")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", dateID))

	if err := c.client.Del(ctx, availabilityKey(dateID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to invalidate availability cache: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func availabilityKey(dateID string) string {
	return availabilityKeyPrefix + dateID
}
