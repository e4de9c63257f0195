package mcpserver

import "context"

// MessageHandler is the contract transports depend on. *Server implements it.
type MessageHandler interface {
	// HandleMessage returns the serialized reply to msg, or nil when msg
	// requires no reply.
	HandleMessage(ctx context.Context, msg []byte) ([]byte, error)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg []byte) ([]byte, error)

// HandleMessage implements MessageHandler.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg []byte) ([]byte, error) {
	return f(ctx, msg)
}

var _ MessageHandler = (*Server)(nil)
