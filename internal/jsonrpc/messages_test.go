package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestParse_Classification(t *testing.T) {
	cases := []struct {
		in    string
		hasID bool
	}{
		{`{"jsonrpc":"2.0","id":1,"method":"ping"}`, true},
		{`{"jsonrpc":"2.0","id":null,"method":"ping"}`, true},
		{`{"id":{}}`, true},
		{`{"jsonrpc":"2.0","method":"notifications/initialized"}`, false},
		{`{}`, false},
	}
	for _, c := range cases {
		env, err := Parse([]byte(c.in))
		if err != nil {
			t.Fatalf("parse %s: %v", c.in, err)
		}
		if env.HasID() != c.hasID {
			t.Fatalf("HasID(%s) = %v, want %v", c.in, env.HasID(), c.hasID)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{``, `{`, `not json`, `{"id":1,}`, "{\"jsonrpc\":\"2.0\",\"id\":\"\xff\",\"method\":\"ping\"}"} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrParse) {
			t.Fatalf("Parse(%q) err = %v, want ErrParse", in, err)
		}
	}
	for _, in := range []string{`[]`, `1`, `"x"`, `null`} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("Parse(%q) err = %v, want ErrInvalidRequest", in, err)
		}
	}
}

func TestParse_DuplicateMember(t *testing.T) {
	for _, in := range []string{
		`{"jsonrpc":"2.0","id":1,"id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":1,"method":"ping","method":"initialize"}`,
		`{"jsonrpc":"2.0","\u0069d":1,"id":2,"method":"ping"}`,
	} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("Parse(%s) err = %v, want ErrInvalidRequest", in, err)
		}
	}

	// Repeated names inside nested values are not top-level duplicates.
	if _, err := Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping","params":{"a":{"id":1},"b":{"id":2}}}`)); err != nil {
		t.Fatalf("parse nested: %v", err)
	}
}

func TestEnvelope_Request(t *testing.T) {
	env, err := Parse([]byte(`{"jsonrpc":"2.0","id":"a-1","method":"initialize","params":{"x":1}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	req, err := env.Request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Method != "initialize" {
		t.Fatalf("method = %q", req.Method)
	}
	if !req.ID.Equal(StringID("a-1")) {
		t.Fatalf("id = %v", req.ID)
	}
	if string(req.Params) != `{"x":1}` {
		t.Fatalf("params = %s", req.Params)
	}
}

func TestEnvelope_RequestShapeErrors(t *testing.T) {
	for _, in := range []string{
		`{"id":1,"method":"ping"}`,
		`{"jsonrpc":"1.0","id":1,"method":"ping"}`,
		`{"jsonrpc":2,"id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":null,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":1.5,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":true,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":1}`,
		`{"jsonrpc":"2.0","id":1,"method":7}`,
		`{"jsonrpc":"2.0","id":1,"method":null}`,
	} {
		env, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("parse %s: %v", in, err)
		}
		if _, err := env.Request(); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("Request(%s) err = %v, want ErrInvalidRequest", in, err)
		}
	}
}

func TestEnvelope_Notification(t *testing.T) {
	env, err := Parse([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized","params":null}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, err := env.Notification()
	if err != nil {
		t.Fatalf("notification: %v", err)
	}
	if n.Method != "notifications/initialized" || n.Params != nil {
		t.Fatalf("unexpected notification %+v", n)
	}

	env, _ = Parse([]byte(`{"jsonrpc":"2.0"}`))
	if _, err := env.Notification(); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing method, got %v", err)
	}
}

func TestEnvelope_IDRecovery(t *testing.T) {
	env, _ := Parse([]byte(`{"id":9,"method":3}`))
	id, ok := env.ID()
	if !ok || !id.Equal(IntID(9)) {
		t.Fatalf("expected recoverable id 9, got %v %v", id, ok)
	}
	env, _ = Parse([]byte(`{"id":[1]}`))
	if _, ok := env.ID(); ok {
		t.Fatalf("array id must not be recoverable")
	}
}

func TestResponse_WireForm(t *testing.T) {
	res, err := NewResultResponse(IntID(1), struct{}{})
	if err != nil {
		t.Fatalf("result response: %v", err)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"jsonrpc":"2.0","id":1,"result":{}}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}

	b, err = json.Marshal(NewErrorResponse(IntID(5), ErrorCodeMethodNotFound, "Method not found", nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"jsonrpc":"2.0","id":5,"error":{"code":-32601,"message":"Method not found"}}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestResponse_Exclusivity(t *testing.T) {
	both := Response{JSONRPCVersion: ProtocolVersion, ID: IntID(1), Result: json.RawMessage(`{}`), Error: &Error{Code: -1}}
	if _, err := json.Marshal(both); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for both, got %v", err)
	}
	neither := Response{JSONRPCVersion: ProtocolVersion, ID: IntID(1)}
	if _, err := json.Marshal(neither); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for neither, got %v", err)
	}
}

func TestResponse_IDNotHTMLEscaped(t *testing.T) {
	b, err := Marshal(NewErrorResponse(StringID("<a&b>"), ErrorCodeMethodNotFound, "Method not found", nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"jsonrpc":"2.0","id":"<a&b>","error":{"code":-32601,"message":"Method not found"}}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{fmt.Errorf("%w: x", ErrParse), ErrorCodeParseError},
		{fmt.Errorf("%w: x", ErrInvalidRequest), ErrorCodeInvalidRequest},
		{fmt.Errorf("wrapped: %w", &Error{Code: ErrorCodeMethodNotFound, Message: "Method not found"}), ErrorCodeMethodNotFound},
		{errors.New("boom"), ErrorCodeInternalError},
	}
	for _, c := range cases {
		if got := CodeOf(c.err); got != c.want {
			t.Fatalf("CodeOf(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
