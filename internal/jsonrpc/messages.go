package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// ProtocolVersion is the supported JSON-RPC protocol version.
const ProtocolVersion = "2.0"

// Envelope is a message parsed only as far as a generic JSON object. It is
// used to classify a message before it is decoded into a typed shape.
type Envelope map[string]json.RawMessage

// Parse parses data as a JSON object. Text that is not valid UTF-8 or not
// valid JSON fails with ErrParse. Valid JSON that is not an object, or that
// repeats a member name, fails with ErrInvalidRequest.
func Parse(data []byte) (Envelope, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: message is not valid UTF-8", ErrParse)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrParse)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: message must be a JSON object: %w", ErrInvalidRequest, err)
	}
	if env == nil {
		return nil, fmt.Errorf("%w: message must be a JSON object", ErrInvalidRequest)
	}
	if name, ok := duplicateMember(data); ok {
		return nil, fmt.Errorf("%w: duplicate member %q", ErrInvalidRequest, name)
	}

	return env, nil
}

// duplicateMember reports the first top-level member name that occurs more
// than once in the JSON object data.
func duplicateMember(data []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return "", false
	}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		name, _ := tok.(string)
		if _, ok := seen[name]; ok {
			return name, true
		}
		seen[name] = struct{}{}

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", false
		}
	}
	return "", false
}

// Marshal encodes v like json.Marshal but leaves <, > and & unescaped, so
// strings such as echoed request ids keep the bytes they arrived with.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// HasID reports whether the "id" member is present, whatever its value.
func (e Envelope) HasID() bool {
	_, ok := e["id"]
	return ok
}

// Method returns the method name if it is a JSON string, or "" otherwise. It
// never fails and is intended for classification and logging.
func (e Envelope) Method() string {
	var m string
	if raw, ok := e["method"]; ok {
		_ = json.Unmarshal(raw, &m)
	}
	return m
}

// ID returns the request ID if present and well-formed.
func (e Envelope) ID() (RequestID, bool) {
	raw, ok := e["id"]
	if !ok || isNull(raw) {
		return RequestID{}, false
	}
	var id RequestID
	if err := json.Unmarshal(raw, &id); err != nil {
		return RequestID{}, false
	}
	return id, true
}

// Request strictly decodes the envelope as a request. The jsonrpc, id and
// method members are required.
func (e Envelope) Request() (*Request, error) {
	if err := e.checkVersion(); err != nil {
		return nil, err
	}

	raw, ok := e["id"]
	if !ok {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidRequest)
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%w: id must not be null", ErrInvalidRequest)
	}
	var id RequestID
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	method, err := e.method()
	if err != nil {
		return nil, err
	}

	return &Request{
		JSONRPCVersion: ProtocolVersion,
		ID:             id,
		Method:         method,
		Params:         e.params(),
	}, nil
}

// Notification strictly decodes the envelope as a notification. The jsonrpc
// and method members are required.
func (e Envelope) Notification() (*Notification, error) {
	if err := e.checkVersion(); err != nil {
		return nil, err
	}

	method, err := e.method()
	if err != nil {
		return nil, err
	}

	return &Notification{
		JSONRPCVersion: ProtocolVersion,
		Method:         method,
		Params:         e.params(),
	}, nil
}

func (e Envelope) checkVersion() error {
	raw, ok := e["jsonrpc"]
	if !ok {
		return fmt.Errorf("%w: missing jsonrpc", ErrInvalidRequest)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: jsonrpc must be a string", ErrInvalidRequest)
	}
	if v != ProtocolVersion {
		return fmt.Errorf("%w: invalid JSON-RPC version: expected %q, got %q", ErrInvalidRequest, ProtocolVersion, v)
	}
	return nil
}

func (e Envelope) method() (string, error) {
	raw, ok := e["method"]
	if !ok {
		return "", fmt.Errorf("%w: missing method", ErrInvalidRequest)
	}
	var m string
	if isNull(raw) {
		return "", fmt.Errorf("%w: method must be a string", ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("%w: method must be a string", ErrInvalidRequest)
	}
	return m, nil
}

func (e Envelope) params() json.RawMessage {
	raw, ok := e["params"]
	if !ok || isNull(raw) {
		return nil
	}
	return raw
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Request represents a JSON-RPC request. It always carries an ID.
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	ID             RequestID       `json:"id"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
}

// Notification represents a JSON-RPC notification. It never carries an ID.
type Notification struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC response. Exactly one of Result and Error is
// set; the other is omitted from the wire form.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	ID             RequestID       `json:"id"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
}

// NewResultResponse builds a successful JSON-RPC response object.
func NewResultResponse(id RequestID, result any) (*Response, error) {
	resultBytes, err := Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &Response{
		JSONRPCVersion: ProtocolVersion,
		ID:             id,
		Result:         resultBytes,
	}, nil
}

// NewErrorResponse builds an error JSON-RPC response with the given code.
func NewErrorResponse(id RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		ID:             id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// Validate checks that exactly one of Result and Error is present.
func (r Response) Validate() error {
	hasResult := len(r.Result) > 0
	hasError := r.Error != nil

	if hasResult && hasError {
		return fmt.Errorf("%w: response cannot have both result and error fields", ErrInvalidResponse)
	}
	if !hasResult && !hasError {
		return fmt.Errorf("%w: response must have either result or error field", ErrInvalidResponse)
	}
	return nil
}

// MarshalJSON refuses to encode a response that fails Validate.
func (r Response) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	type wire Response
	return Marshal(wire(r))
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// Error implements the error interface so protocol errors can be returned
// and wrapped like any other Go error.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}
