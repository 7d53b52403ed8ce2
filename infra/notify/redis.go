package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kilianp07/chargestation/core/model"
)

// RedisConfig configures the Redis pub/sub notifier.
type RedisConfig struct {
	Addr          string `json:"addr"`
	Password      string `json:"password"`
	DB            int    `json:"db"`
	ChannelPrefix string `json:"channel_prefix"`
	TimeoutMS     int    `json:"timeout_ms"`
}

// redisPublisher is the subset of *redis.Client used by the notifier.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisNotifier publishes notifications on one channel per station.
type RedisNotifier struct {
	client  redisPublisher
	prefix  string
	timeout time.Duration
}

// NewRedisNotifier creates the client and verifies connectivity.
func NewRedisNotifier(ctx context.Context, cfg RedisConfig) (*RedisNotifier, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis notifier: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return newRedisNotifier(ctx, client, cfg)
}

func newRedisNotifier(ctx context.Context, client redisPublisher, cfg RedisConfig) (*RedisNotifier, error) {
	n := &RedisNotifier{client: client, prefix: cfg.ChannelPrefix, timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
	if n.prefix == "" {
		n.prefix = "chargestation"
	}
	if n.timeout <= 0 {
		n.timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return n, nil
}

// Channel returns the pub/sub channel used for a station.
func (r *RedisNotifier) Channel(stationID int) string {
	return fmt.Sprintf("%s:station:%d", r.prefix, stationID)
}

// Notify publishes n as JSON.
func (r *RedisNotifier) Notify(n model.Notification) error {
	payload, err := json.Marshal(newMessage(n))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.Channel(n.StationID), payload).Err(); err != nil {
		return fmt.Errorf("redis notify: %w", err)
	}
	return nil
}

// Close releases the client.
func (r *RedisNotifier) Close() error { return r.client.Close() }
