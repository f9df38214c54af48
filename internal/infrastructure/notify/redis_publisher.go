package notify

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
)

const (
	defaultChannelPrefix = "castaway:events"
	defaultStreamMaxLen  = 10000
)

// redisCommander is the subset of redis.Cmdable used for delivery.
type redisCommander interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

type RedisConfig struct {
	URL           string
	ChannelPrefix string
	// StreamMaxLen caps the replay stream; 0 disables the stream copy.
	StreamMaxLen int64
}

// RedisPublisher fans events out on pub/sub channels and appends them to a
// capped stream so late subscribers can replay recent transitions.
type RedisPublisher struct {
	client       redisCommander
	closer       func() error
	prefix       string
	streamMaxLen int64
	logger       *logging.Logger
}

func NewRedisPublisher(ctx context.Context, cfg RedisConfig, logger *logging.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", opts.Addr, err)
	}

	publisher := newRedisPublisher(client, cfg, logger)
	publisher.closer = client.Close
	publisher.logger.Info("redis event publisher connected", "addr", opts.Addr, "db", opts.DB)
	return publisher, nil
}

func newRedisPublisher(client redisCommander, cfg RedisConfig, logger *logging.Logger) *RedisPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	maxLen := cfg.StreamMaxLen
	if maxLen < 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisPublisher{
		client:       client,
		closer:       func() error { return nil },
		prefix:       prefix,
		streamMaxLen: maxLen,
		logger:       logger.Named("redis"),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt event.Event) error {
	payload, err := sonic.MarshalString(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channel := p.Channel(evt.Name)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}

	if p.streamMaxLen > 0 {
		args := &redis.XAddArgs{
			Stream: p.prefix + ":stream",
			MaxLen: p.streamMaxLen,
			Approx: true,
			Values: map[string]any{
				"name":    string(evt.Name),
				"id":      evt.ID,
				"payload": payload,
			},
		}
		if err := p.client.XAdd(ctx, args).Err(); err != nil {
			p.logger.WarnContext(ctx, "append event stream failed", "event", evt.Name, "error", err)
		}
	}
	return nil
}

func (p *RedisPublisher) Channel(name event.Name) string {
	return p.prefix + ":" + string(name)
}

func (p *RedisPublisher) Close() error {
	return p.closer()
}
