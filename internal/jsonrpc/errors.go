package jsonrpc

import "errors"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603
)

var (
	// ErrParse is returned when a message is not a parseable JSON object.
	ErrParse = errors.New("jsonrpc: parse error")
	// ErrInvalidRequest is returned when a parsed message does not have the
	// shape of a request or notification.
	ErrInvalidRequest = errors.New("jsonrpc: invalid request")
	// ErrInvalidResponse is returned when a response carries both or neither
	// of result and error.
	ErrInvalidResponse = errors.New("jsonrpc: invalid response")
)

// CodeOf maps err to the JSON-RPC error code that describes it. A wrapped
// *Error keeps its own code; unrecognized errors are internal errors.
func CodeOf(err error) ErrorCode {
	var rpcErr *Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr.Code
	case errors.Is(err, ErrParse):
		return ErrorCodeParseError
	case errors.Is(err, ErrInvalidRequest):
		return ErrorCodeInvalidRequest
	default:
		return ErrorCodeInternalError
	}
}
