package redisstream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ggoodman/mcp-handshake-go/mcp"
	"github.com/ggoodman/mcp-handshake-go/mcpserver"
	"github.com/redis/go-redis/v9"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()
	if cfg.RedisAddr != "localhost:6379" || cfg.InboundStream != "mcp:inbound" || cfg.OutboundStream != "mcp:outbound" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.StartID != "$" || cfg.Block != 500*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestRedisStream(t *testing.T) {
	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   3, // Use separate DB for transport tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	// Clean up test data
	defer client.FlushDB(ctx)

	srv := mcpserver.NewServer(
		mcpserver.WithServerInfo(mcp.ImplementationInfo{Name: "redis-test", Version: "1.0.0"}),
		mcpserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	cfg := Config{InboundStream: "test:in", OutboundStream: "test:out", StartID: "0", Block: 50 * time.Millisecond}
	h := New(srv, client, cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	inputs := []string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`not json`,
		`{"jsonrpc":"2.0","id":"q","method":"nope"}`,
	}
	var ids []string
	for _, in := range inputs {
		id, err := client.XAdd(ctx, &redis.XAddArgs{Stream: "test:in", Values: map[string]any{"d": in}}).Result()
		if err != nil {
			t.Fatalf("xadd: %v", err)
		}
		ids = append(ids, id)
	}
	// An entry without a payload is skipped.
	if err := client.XAdd(ctx, &redis.XAddArgs{Stream: "test:in", Values: map[string]any{"x": "y"}}).Err(); err != nil {
		t.Fatalf("xadd: %v", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- h.Serve(sctx) }()

	var out []redis.XMessage
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var err error
		out, err = client.XRange(ctx, "test:out", "-", "+").Result()
		if err != nil {
			t.Fatalf("xrange: %v", err)
		}
		if len(out) >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve returned %v, want context.Canceled", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(out))
	}
	if out[0].Values["d"] != `{"jsonrpc":"2.0","id":1,"result":{}}` || out[0].Values["in"] != ids[0] {
		t.Fatalf("unexpected first reply %v", out[0].Values)
	}
	if out[1].Values["d"] != `{"jsonrpc":"2.0","id":"q","error":{"code":-32601,"message":"Method not found"}}` || out[1].Values["in"] != ids[3] {
		t.Fatalf("unexpected second reply %v", out[1].Values)
	}
}
