// Package redisstream serves an MCP message handler over a pair of Redis
// Streams. Producers XADD one JSON-RPC message per entry (field "d") to the
// inbound stream; the handler XADDs each reply to the outbound stream with
// the reply in "d" and the inbound entry ID in "in" for correlation.
// Notifications and rejected messages produce no outbound entry.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggoodman/mcp-handshake-go/internal/logctx"
	"github.com/ggoodman/mcp-handshake-go/mcpserver"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

const (
	payloadField = "d"
	inReplyField = "in"
)

// Config for a Redis-backed transport. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// InboundStream is read for messages. ENV: MCP_INBOUND_STREAM
	InboundStream string `env:"MCP_INBOUND_STREAM,default=mcp:inbound"`
	// OutboundStream receives replies. ENV: MCP_OUTBOUND_STREAM
	OutboundStream string `env:"MCP_OUTBOUND_STREAM,default=mcp:outbound"`
	// StartID is the inbound entry ID to read after; "$" means only new
	// entries. ENV: MCP_INBOUND_START
	StartID string `env:"MCP_INBOUND_START,default=$"`
	// Block bounds each XREAD call. ENV: MCP_INBOUND_BLOCK
	Block time.Duration `env:"MCP_INBOUND_BLOCK,default=500ms"`
}

func (c *Config) applyDefaults() {
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.InboundStream == "" {
		c.InboundStream = "mcp:inbound"
	}
	if c.OutboundStream == "" {
		c.OutboundStream = "mcp:outbound"
	}
	if c.StartID == "" {
		c.StartID = "$"
	}
	if c.Block <= 0 {
		c.Block = 500 * time.Millisecond
	}
}

// Handler consumes the inbound stream and publishes replies.
type Handler struct {
	srv    mcpserver.MessageHandler
	client redis.UniversalClient
	cfg    Config
	log    *slog.Logger
	owned  bool
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// New builds a Handler on an existing client. The caller keeps ownership of
// the client. Only the stream, start and block settings of cfg are used.
func New(srv mcpserver.MessageHandler, client redis.UniversalClient, cfg Config, opts ...Option) *Handler {
	cfg.applyDefaults()
	h := &Handler{
		srv:    srv,
		client: client,
		cfg:    cfg,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// NewFromConfig dials Redis at cfg.RedisAddr and verifies the connection.
// The returned Handler owns the client; release it with Close.
func NewFromConfig(ctx context.Context, srv mcpserver.MessageHandler, cfg Config, opts ...Option) (*Handler, error) {
	cfg.applyDefaults()
	cl := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	h := New(srv, cl, cfg, opts...)
	h.owned = true
	return h, nil
}

// NewFromEnv builds a Handler using envdecode to populate Config.
func NewFromEnv(ctx context.Context, srv mcpserver.MessageHandler, opts ...Option) (*Handler, error) {
	var cfg Config
	// Defaults are provided via struct tags.
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode redis stream config: %w", err)
	}
	return NewFromConfig(ctx, srv, cfg, opts...)
}

// Close closes the Redis client if the Handler created it.
func (h *Handler) Close() error {
	if h.owned {
		return h.client.Close()
	}
	return nil
}

// Serve reads the inbound stream until ctx is canceled or Redis fails.
// Entries are handled one at a time in stream order.
func (h *Handler) Serve(ctx context.Context) error {
	ctx = logctx.WithConnData(ctx, &logctx.ConnData{ConnID: uuid.NewString(), Transport: "redis"})
	h.log.InfoContext(ctx, "redisstream.serve.start",
		slog.String("inbound", h.cfg.InboundStream),
		slog.String("outbound", h.cfg.OutboundStream),
	)

	start := h.cfg.StartID
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := h.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{h.cfg.InboundStream, start},
			Count:   16,
			Block:   h.cfg.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.log.ErrorContext(ctx, "redisstream.read.fail", slog.String("err", err.Error()))
			return fmt.Errorf("xread %s: %w", h.cfg.InboundStream, err)
		}

		for _, stream := range res {
			for _, m := range stream.Messages {
				start = m.ID
				if err := h.handleEntry(ctx, m); err != nil {
					return err
				}
			}
		}
	}
}

func (h *Handler) handleEntry(ctx context.Context, m redis.XMessage) error {
	ctx = logctx.WithRequestData(ctx, &logctx.RequestData{RequestID: m.ID, Path: h.cfg.InboundStream})

	var payload []byte
	switch v := m.Values[payloadField].(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		h.log.WarnContext(ctx, "redisstream.entry.no_payload")
		return nil
	}

	start := time.Now()
	out, err := h.srv.HandleMessage(ctx, payload)
	if err != nil {
		h.log.WarnContext(ctx, "redisstream.handle_message.fail", slog.String("err", err.Error()))
		return nil
	}
	if out == nil {
		return nil
	}

	if err := h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: h.cfg.OutboundStream,
		Values: map[string]any{payloadField: out, inReplyField: m.ID},
	}).Err(); err != nil {
		h.log.ErrorContext(ctx, "redisstream.write.fail", slog.String("err", err.Error()))
		return fmt.Errorf("xadd %s: %w", h.cfg.OutboundStream, err)
	}
	h.log.DebugContext(ctx, "redisstream.write.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return nil
}
