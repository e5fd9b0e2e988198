package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stoalearn/stoa-backend/internal/platform/envutil"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
)

// Config controls the Redis connection behind the SSE bus.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// ConfigFromEnv reads REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and
// REDIS_CHANNEL. All instances share one pub/sub channel; the hub fans
// messages out to per-user and curriculum subscribers locally.
func ConfigFromEnv() Config {
	return Config{
		Addr:     envutil.Str("REDIS_ADDR", ""),
		Password: envutil.Str("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		Channel:  envutil.Str("REDIS_CHANNEL", "stoa.sse"),
	}
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewSSEBus connects to Redis using env configuration. Callers gate on
// REDIS_ADDR before calling; an empty addr is still an error here.
func NewSSEBus(log *logger.Logger) (Bus, error) {
	return NewWithConfig(log, ConfigFromEnv())
}

func NewWithConfig(log *logger.Logger, cfg Config) (Bus, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "stoa.sse"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisBus{
		log:     log.With("service", "RedisSSEBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis SSE bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode SSE message: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis SSE bus not initialized")
	}
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	// Receive forces the SUBSCRIBE round trip, so a bad connection fails
	// here instead of silently dropping messages later.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()
	go b.forward(sub, onMsg)
	return nil
}

// forward drains the subscription until Close. Undecodable payloads are
// logged and skipped; one bad publisher must not wedge the stream.
func (b *redisBus) forward(sub *goredis.PubSub, onMsg func(m realtime.SSEMessage)) {
	for m := range sub.Channel() {
		if m == nil {
			continue
		}
		var msg realtime.SSEMessage
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			b.log.Warn("bad redis SSE payload", "error", err)
			continue
		}
		onMsg(msg)
	}
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
