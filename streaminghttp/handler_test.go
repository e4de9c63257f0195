package streaminghttp_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ggoodman/mcp-handshake-go/mcp"
	"github.com/ggoodman/mcp-handshake-go/mcpserver"
	"github.com/ggoodman/mcp-handshake-go/streaminghttp"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustServer(t *testing.T, opts ...streaminghttp.Option) (*httptest.Server, *streaminghttp.Handler) {
	t.Helper()
	srv := mcpserver.NewServer(
		mcpserver.WithServerInfo(mcp.ImplementationInfo{Name: "http-test", Version: "1.2.3"}),
		mcpserver.WithLogger(discardLogger()),
	)
	h := streaminghttp.New(srv, append([]streaminghttp.Option{streaminghttp.WithLogger(discardLogger())}, opts...)...)
	ts := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		ts.Close()
	})
	return ts, h
}

func post(t *testing.T, url, contentType, accept, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPOST_Request(t *testing.T) {
	ts, _ := mustServer(t)

	resp := post(t, ts.URL, "application/json", "application/json, text/event-stream", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"jsonrpc":"2.0","id":1,"result":{}}` {
		t.Fatalf("body = %s", body)
	}
}

func TestPOST_Initialize(t *testing.T) {
	ts, _ := mustServer(t)

	resp := post(t, ts.URL, "application/json; charset=utf-8", "", `{"jsonrpc":"2.0","id":"a","method":"initialize","params":{}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var res struct {
		ID     string               `json:"id"`
		Result mcp.InitializeResult `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ID != "a" || res.Result.ProtocolVersion != mcp.ProtocolVersion || res.Result.ServerInfo.Name != "http-test" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPOST_NotificationAccepted(t *testing.T) {
	ts, _ := mustServer(t)

	resp := post(t, ts.URL, "application/json", "", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Fatalf("expected empty body, got %s", body)
	}
}

func TestPOST_Rejections(t *testing.T) {
	ts, _ := mustServer(t, streaminghttp.WithMaxBodySize(128))

	cases := []struct {
		name        string
		contentType string
		accept      string
		body        string
		want        int
	}{
		{"malformed", "application/json", "", `{nope`, http.StatusBadRequest},
		{"invalid shape", "application/json", "", `{"jsonrpc":"2.0","id":1}`, http.StatusBadRequest},
		{"batch", "application/json", "", `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, http.StatusBadRequest},
		{"wrong content type", "text/plain", "", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, http.StatusUnsupportedMediaType},
		{"missing content type", "", "", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, http.StatusUnsupportedMediaType},
		{"not acceptable", "application/json", "text/html", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, http.StatusNotAcceptable},
		{"too large", "application/json", "", `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"` + strings.Repeat("x", 256) + `"}}`, http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := post(t, ts.URL, c.contentType, c.accept, c.body)
			if resp.StatusCode != c.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, c.want)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := mustServer(t)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestGET_EventStream(t *testing.T) {
	ts, h := mustServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	// Closing the handler ends the stream.
	h.Close()
	if _, err := io.ReadAll(resp.Body); err != nil {
		t.Fatalf("read stream: %v", err)
	}
}

func TestGET_RequiresEventStream(t *testing.T) {
	ts, _ := mustServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotAcceptable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

// TestSDKClient_E2E connects the reference MCP client to the handler and runs
// the handshake followed by a ping.
func TestSDKClient_E2E(t *testing.T) {
	ts, _ := mustServer(t)
	ctx := t.Context()

	client := sdk.NewClient(&sdk.Implementation{Name: "e2e", Version: "0.0.0"}, &sdk.ClientOptions{})
	transport := &sdk.StreamableClientTransport{
		Endpoint: ts.URL + "/",
	}
	cs, err := client.Connect(ctx, transport, &sdk.ClientSessionOptions{})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer cs.Close()

	if err := cs.Ping(ctx, nil); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}
