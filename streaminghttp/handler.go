package streaminghttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/ggoodman/mcp-handshake-go/internal/logctx"
	"github.com/ggoodman/mcp-handshake-go/mcpserver"
	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"
)

var (
	_ http.Handler = (*Handler)(nil)
)

var (
	jsonMediaType         = contenttype.NewMediaType("application/json")
	jsonMediaTypes        = []contenttype.MediaType{jsonMediaType}
	eventStreamMediaType  = contenttype.NewMediaType("text/event-stream")
	eventStreamMediaTypes = []contenttype.MediaType{eventStreamMediaType}
)

const (
	requestIDHeader = "X-Request-Id"

	defaultPath        = "/"
	defaultMaxBodySize = 4 << 20
)

// writeJSONError emits a minimal JSON body for HTTP-layer rejections. This is
// transport-level, not a JSON-RPC error response.
// Shape: {"error":{"code":<httpStatus>,"message":"<reason>"}}
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets the logger used by the handler.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithPath sets the path the endpoint is mounted at. Defaults to "/".
func WithPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.path = path
		}
	}
}

// WithMaxBodySize bounds the size of a POSTed message.
func WithMaxBodySize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// Handler exposes an mcpserver.MessageHandler over HTTP. Each POST body is one
// JSON-RPC message; the reply, if any, is the response body.
type Handler struct {
	srv         mcpserver.MessageHandler
	mux         *http.ServeMux
	log         *slog.Logger
	path        string
	maxBodySize int64
	bufs        bytebufferpool.Pool

	closeOnce sync.Once
	done      chan struct{}
}

// New builds a Handler that delegates every message to srv.
func New(srv mcpserver.MessageHandler, opts ...Option) *Handler {
	h := &Handler{
		srv:         srv,
		mux:         http.NewServeMux(),
		log:         slog.Default(),
		path:        defaultPath,
		maxBodySize: defaultMaxBodySize,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	h.mux.HandleFunc("POST "+h.path, h.handlePost)
	h.mux.HandleFunc("GET "+h.path, h.handleGet)
	return h
}

// Close ends any open event streams. The handler keeps answering POSTs.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set(requestIDHeader, reqID)
	h.mux.ServeHTTP(w, r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  reqID,
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})))
}

// handlePost handles one client-to-server message.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.DebugContext(ctx, "http.post.start")

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		h.log.WarnContext(ctx, "http.post.content_type.unsupported")
		return
	}

	if _, _, err := contenttype.GetAcceptableMediaType(r, jsonMediaTypes); err != nil {
		writeJSONError(w, http.StatusNotAcceptable, "client must accept application/json")
		h.log.WarnContext(ctx, "http.post.accept.unsupported")
		return
	}

	buf := h.bufs.Get()
	defer h.bufs.Put(buf)

	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, h.maxBodySize)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "message too large")
			h.log.WarnContext(ctx, "http.post.body.too_large", slog.Int64("limit", tooLarge.Limit))
			return
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read body")
		h.log.WarnContext(ctx, "http.post.body.read_fail", slog.String("err", err.Error()))
		return
	}

	out, err := h.srv.HandleMessage(ctx, buf.B)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		h.log.WarnContext(ctx, "http.post.handle_message.fail", slog.String("err", err.Error()))
		return
	}

	if out == nil {
		w.WriteHeader(http.StatusAccepted)
		h.log.DebugContext(ctx, "http.post.accepted", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return
	}

	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.log.WarnContext(ctx, "http.post.write_fail", slog.String("err", err.Error()))
		return
	}
	h.log.DebugContext(ctx, "http.post.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
}

// handleGet opens a server-to-client event stream. This server never
// initiates messages, so the stream stays idle until either side closes it.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, _, err := contenttype.GetAcceptableMediaType(r, eventStreamMediaTypes); err != nil {
		writeJSONError(w, http.StatusNotAcceptable, "client must accept text/event-stream")
		h.log.WarnContext(ctx, "http.get.accept.unsupported")
		return
	}

	f, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.ErrorContext(ctx, "http.get.flusher.missing")
		return
	}

	w.Header().Set("Content-Type", eventStreamMediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	h.log.DebugContext(ctx, "http.get.stream.open")

	select {
	case <-ctx.Done():
	case <-h.done:
	}
	h.log.DebugContext(ctx, "http.get.stream.closed")
}
