package sink

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fredo994/coinbase-feed/internal/handler"
	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// Publisher is the subset of *redis.Client used by RedisSink.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisConfig configures the Redis sink.
type RedisConfig struct {
	ChannelPrefix  string                 // Channel name prefix (default: "coinbase")
	Events         []protocol.MessageType // Event types to publish (default: ticker, l2update, match)
	PublishTimeout time.Duration          // Timeout per publish
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		ChannelPrefix:  "coinbase",
		PublishTimeout: time.Second,
	}
}

// RedisMetrics tracks publish activity.
type RedisMetrics struct {
	Published int64
	Errors    int64
}

// RedisSink publishes events to Redis pub/sub. Publish failures are logged
// and counted but never terminate the stream.
type RedisSink struct {
	handler.Nop

	pub    Publisher
	cfg    RedisConfig
	logger *slog.Logger
	events map[protocol.MessageType]bool

	published atomic.Int64
	errors    atomic.Int64
}

// NewRedisSink creates a new RedisSink.
func NewRedisSink(pub Publisher, cfg RedisConfig, logger *slog.Logger) (*RedisSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	events, err := eventSet(cfg.Events)
	if err != nil {
		return nil, err
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = DefaultRedisConfig().ChannelPrefix
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultRedisConfig().PublishTimeout
	}

	return &RedisSink{
		pub:    pub,
		cfg:    cfg,
		logger: logger.With("component", "redis_sink"),
		events: events,
	}, nil
}

// ConnectRedis opens a client and verifies it with PING.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func (s *RedisSink) OnTicker(ev *protocol.TickerEvent) error {
	return s.publish(ev, ev.ProductID)
}

func (s *RedisSink) OnSnapshot(ev *protocol.SnapshotEvent) error {
	return s.publish(ev, ev.ProductID)
}

func (s *RedisSink) OnL2Update(ev *protocol.L2UpdateEvent) error {
	return s.publish(ev, ev.ProductID)
}

func (s *RedisSink) OnMatch(ev *protocol.MatchEvent) error {
	return s.publish(ev, ev.ProductID)
}

func (s *RedisSink) OnLastMatch(ev *protocol.LastMatchEvent) error {
	return s.publish(ev, ev.ProductID)
}

func (s *RedisSink) OnHeartbeat(ev *protocol.HeartbeatEvent) error {
	return s.publish(ev, ev.ProductID)
}

func (s *RedisSink) OnDone(ev *protocol.DoneEvent) error {
	return s.publish(ev, ev.ProductID)
}

// Close closes the publisher if it owns a connection.
func (s *RedisSink) Close() error {
	s.logger.Info("redis sink closed",
		"published", s.published.Load(),
		"errors", s.errors.Load(),
	)
	if c, ok := s.pub.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Stats returns current metrics.
func (s *RedisSink) Stats() RedisMetrics {
	return RedisMetrics{
		Published: s.published.Load(),
		Errors:    s.errors.Load(),
	}
}

// Channel returns the pub/sub channel for an event type and product.
func (s *RedisSink) Channel(t protocol.MessageType, productID string) string {
	if productID == "" {
		return s.cfg.ChannelPrefix + "." + string(t)
	}
	return s.cfg.ChannelPrefix + "." + string(t) + "." + productID
}

func (s *RedisSink) publish(ev protocol.Event, productID string) error {
	if !s.events[ev.Type()] {
		return nil
	}

	data, err := protocol.Encode(ev)
	if err != nil {
		s.errors.Add(1)
		s.logger.Warn("encode failed", "type", ev.Type(), "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PublishTimeout)
	defer cancel()

	channel := s.Channel(ev.Type(), productID)
	if err := s.pub.Publish(ctx, channel, data).Err(); err != nil {
		s.errors.Add(1)
		s.logger.Warn("publish failed", "channel", channel, "error", err)
		return nil
	}
	s.published.Add(1)
	return nil
}
