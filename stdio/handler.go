package stdio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ggoodman/mcp-handshake-go/internal/logctx"
	"github.com/ggoodman/mcp-handshake-go/mcpserver"
	"github.com/google/uuid"
)

const defaultMaxMessageSize = 4 << 20

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes replies to an io.Writer. By
// default, it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; it delegates all MCP semantics to the
// provided mcpserver.MessageHandler.
type Handler struct {
	srv mcpserver.MessageHandler
	r   io.Reader
	w   io.Writer
	l   *slog.Logger

	maxMessageSize int
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv mcpserver.MessageHandler, opts ...Option) *Handler {
	h := &Handler{
		srv:            srv,
		r:              os.Stdin,
		w:              os.Stdout,
		l:              slog.Default(),
		maxMessageSize: defaultMaxMessageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It is safe to call at most once per Handler. Serve returns nil on
// EOF, ctx.Err() on cancellation, and an error when reading or writing fails.
func (h *Handler) Serve(ctx context.Context) error {
	ctx = logctx.WithConnData(ctx, &logctx.ConnData{ConnID: uuid.NewString(), Transport: "stdio"})
	h.l.InfoContext(ctx, "stdio.serve.start")

	lines := make(chan []byte)
	readErr := make(chan error, 1)

	// Reads block without regard for ctx, so they happen on their own goroutine.
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(h.r)
		sc.Buffer(make([]byte, 0, min(64*1024, h.maxMessageSize)), h.maxMessageSize)
		for sc.Scan() {
			line := bytes.Clone(sc.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			h.l.InfoContext(ctx, "stdio.serve.cancelled")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				var err error
				select {
				case err = <-readErr:
				default:
				}
				if err != nil {
					h.l.ErrorContext(ctx, "stdio.read.fail", slog.String("err", err.Error()))
					return fmt.Errorf("read message: %w", err)
				}
				h.l.InfoContext(ctx, "stdio.serve.eof")
				return nil
			}
			if err := h.handleLine(ctx, line); err != nil {
				return err
			}
		}
	}
}

func (h *Handler) handleLine(ctx context.Context, line []byte) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	start := time.Now()
	out, err := h.srv.HandleMessage(ctx, line)
	if err != nil {
		// The peer gets no reply; the connection stays up.
		h.l.WarnContext(ctx, "stdio.handle_message.fail", slog.String("err", err.Error()))
		return nil
	}
	if out == nil {
		return nil
	}

	if _, err := h.w.Write(append(out, '\n')); err != nil {
		h.l.ErrorContext(ctx, "stdio.write.fail", slog.String("err", err.Error()))
		return fmt.Errorf("write response: %w", err)
	}
	h.l.DebugContext(ctx, "stdio.write.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return nil
}
