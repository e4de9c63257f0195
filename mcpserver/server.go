package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ggoodman/mcp-handshake-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-handshake-go/internal/logctx"
	"github.com/ggoodman/mcp-handshake-go/mcp"
)

var (
	// ErrParse is returned by HandleMessage when the message is not valid JSON.
	ErrParse = jsonrpc.ErrParse
	// ErrInvalidRequest is returned by HandleMessage when the message is JSON
	// but not a well-formed request or notification.
	ErrInvalidRequest = jsonrpc.ErrInvalidRequest
)

const (
	methodNotFoundMessage = "Method not found"
	internalErrorMessage  = "Internal error"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// Server classifies and answers single MCP messages. Its configuration is
// fixed at construction, so one Server may be shared by any number of
// goroutines and transports.
type Server struct {
	info mcp.ImplementationInfo
	caps mcp.ServerCapabilities
	log  *slog.Logger

	invalidRequestReplies bool
}

// NewServer builds a Server using functional options. Capabilities default
// to mcp.DefaultServerCapabilities.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		caps: mcp.DefaultServerCapabilities(),
		log:  slog.Default(),
	}

	// Apply options (order matters; later options override earlier ones).
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// WithServerInfo sets the implementation identity echoed in initialize results.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *Server) { s.info = info }
}

// WithCapabilities replaces the advertised capabilities. The value is copied.
func WithCapabilities(caps mcp.ServerCapabilities) ServerOption {
	return func(s *Server) { s.caps = caps.Clone() }
}

// WithLogger sets a custom logger for the Server.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithInvalidRequestReplies controls what happens when a message carries an
// id but is otherwise not a valid request. When enabled and the id itself is
// usable, the server answers with an Invalid Request (-32600) error response
// instead of returning ErrInvalidRequest. Disabled by default.
func WithInvalidRequestReplies(enabled bool) ServerOption {
	return func(s *Server) { s.invalidRequestReplies = enabled }
}

// ServerInfo returns the implementation identity.
func (s *Server) ServerInfo() mcp.ImplementationInfo { return s.info }

// Capabilities returns a copy of the advertised capabilities.
func (s *Server) Capabilities() mcp.ServerCapabilities { return s.caps.Clone() }

// HandleMessage handles one raw JSON-RPC message.
//
// A message with an "id" member is a request and yields a serialized
// response. A message without one is a notification and yields nil. The
// presence of "id" is checked before any other validation, so a request with
// a broken method or version still counts as a request.
//
// Malformed JSON fails with ErrParse; a message with the wrong shape fails
// with ErrInvalidRequest. In both cases no output is produced and the Server
// remains usable. The context only carries logging attributes.
func (s *Server) HandleMessage(ctx context.Context, msg []byte) ([]byte, error) {
	env, err := jsonrpc.Parse(msg)
	if err != nil {
		s.log.InfoContext(ctx, "mcpserver.handle_message.malformed",
			slog.Int("code", int(jsonrpc.CodeOf(err))),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	if env.HasID() {
		return s.handleRequest(ctx, env)
	}

	if err := s.handleNotification(ctx, env); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRequest(ctx context.Context, env jsonrpc.Envelope) ([]byte, error) {
	start := time.Now()

	req, err := env.Request()
	if err != nil {
		id, ok := env.ID()
		if !s.invalidRequestReplies || !ok {
			s.log.InfoContext(ctx, "mcpserver.handle_request.invalid",
				slog.Int("code", int(jsonrpc.CodeOf(err))),
				slog.String("err", err.Error()),
			)
			return nil, err
		}

		ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: env.Method(), ID: id.String(), Type: "request"})
		s.log.InfoContext(ctx, "mcpserver.handle_request.invalid_reply", slog.String("err", err.Error()))
		return s.encode(ctx, jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInvalidRequest, "Invalid Request", err.Error()), start)
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: "request"})

	var res *jsonrpc.Response
	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		res, err = s.handleInitialize(ctx, req)
	case mcp.PingMethod:
		res, err = jsonrpc.NewResultResponse(req.ID, mcp.PingResult{})
	default:
		s.log.InfoContext(ctx, "mcpserver.handle_request.method_not_found")
		res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, methodNotFoundMessage, nil)
	}
	if err != nil {
		// A valid request always gets a reply.
		s.log.ErrorContext(ctx, "mcpserver.handle_request.fail", slog.String("err", err.Error()))
		res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, internalErrorMessage, nil)
	}

	return s.encode(ctx, res, start)
}

func (s *Server) handleInitialize(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	// The offered version and client capabilities are informational only.
	var initReq mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &initReq); err != nil {
			s.log.DebugContext(ctx, "mcpserver.initialize.params_ignored", slog.String("err", err.Error()))
		}
	}
	if initReq.ProtocolVersion != "" && initReq.ProtocolVersion != mcp.ProtocolVersion {
		s.log.InfoContext(ctx, "mcpserver.initialize.version_mismatch",
			slog.String("client_version", initReq.ProtocolVersion),
			slog.String("server_version", mcp.ProtocolVersion),
		)
	}

	s.log.InfoContext(ctx, "mcpserver.initialize",
		slog.String("client_name", initReq.ClientInfo.Name),
		slog.String("client_version", initReq.ClientInfo.Version),
	)

	return jsonrpc.NewResultResponse(req.ID, &mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    s.caps,
		ServerInfo:      s.info,
	})
}

func (s *Server) encode(ctx context.Context, res *jsonrpc.Response, start time.Time) ([]byte, error) {
	out, err := jsonrpc.Marshal(res)
	if err != nil {
		s.log.ErrorContext(ctx, "mcpserver.handle_request.encode_fail", slog.String("err", err.Error()))
		return nil, err
	}
	s.log.InfoContext(ctx, "mcpserver.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return out, nil
}

func (s *Server) handleNotification(ctx context.Context, env jsonrpc.Envelope) error {
	note, err := env.Notification()
	if err != nil {
		s.log.InfoContext(ctx, "mcpserver.handle_notification.invalid", slog.String("err", err.Error()))
		return err
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: note.Method, Type: "notification"})

	switch mcp.Method(note.Method) {
	case mcp.InitializedNotificationMethod:
		s.log.DebugContext(ctx, "mcpserver.handle_notification.initialized")
	default:
		// Notifications never produce a reply, recognized or not.
		s.log.DebugContext(ctx, "mcpserver.handle_notification.ignored",
			slog.Bool("known", mcp.IsKnownNotification(mcp.Method(note.Method))))
	}
	return nil
}
