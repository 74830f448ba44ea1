package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-service/internal/config"
)

// Client wraps the Redis client with application-specific methods
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key prefixes
const (
	ComplianceSnapshotPrefix = "compliance:snapshot:"
)

// ComplianceSnapshotTTL bounds snapshot staleness.
const ComplianceSnapshotTTL = 5 * time.Minute

// snapshotKey scopes cached snapshots per principal: visibility differs
// between principals, so snapshots are never shared across them.
func snapshotKey(userID string) string {
	return ComplianceSnapshotPrefix + userID
}

// GetComplianceSnapshot retrieves a cached dashboard snapshot, nil on
// miss.
func (c *Client) GetComplianceSnapshot(ctx context.Context, userID string, out interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(userID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get compliance snapshot: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal compliance snapshot: %w", err)
	}
	return true, nil
}

// SetComplianceSnapshot caches a dashboard snapshot with the standard
// TTL.
func (c *Client) SetComplianceSnapshot(ctx context.Context, userID string, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal compliance snapshot: %w", err)
	}
	return c.rdb.Set(ctx, snapshotKey(userID), data, ComplianceSnapshotTTL).Err()
}

// InvalidateComplianceSnapshot drops a cached snapshot.
func (c *Client) InvalidateComplianceSnapshot(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, snapshotKey(userID)).Err()
}
