// Package config loads the runtime configuration of the mcp-handshake binary.
//
// Values are resolved in this order, later sources overriding earlier ones:
//  1. struct tag defaults and environment variables (envdecode)
//  2. an optional JSON or YAML file, chosen by extension
//
// Command-line flags are applied on top by the caller.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ggoodman/mcp-handshake-go/internal/logctx"
	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Transport names accepted in Config.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportRedis = "redis"
)

// Config is the binary's configuration.
type Config struct {
	Server struct {
		// Name is echoed in serverInfo.name.
		Name string `env:"MCP_SERVER_NAME,default=mcp-handshake" json:"name,omitempty" yaml:"name,omitempty"`
		// Version is echoed in serverInfo.version.
		Version string `env:"MCP_SERVER_VERSION,default=0.1.0" json:"version,omitempty" yaml:"version,omitempty"`
		// InvalidRequestReplies answers malformed requests that still carry
		// a usable id with a -32600 error instead of dropping them.
		InvalidRequestReplies bool `env:"MCP_INVALID_REQUEST_REPLIES,default=false" json:"invalidRequestReplies,omitempty" yaml:"invalidRequestReplies,omitempty"`
	} `json:"server" yaml:"server"`

	// Transport is one of stdio, http or redis.
	Transport string `env:"MCP_TRANSPORT,default=stdio" json:"transport,omitempty" yaml:"transport,omitempty"`

	HTTP struct {
		Addr        string `env:"MCP_HTTP_ADDR,default=127.0.0.1:8080" json:"addr,omitempty" yaml:"addr,omitempty"`
		Path        string `env:"MCP_HTTP_PATH,default=/" json:"path,omitempty" yaml:"path,omitempty"`
		MaxBodySize int64  `env:"MCP_HTTP_MAX_BODY_SIZE,default=4194304" json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	} `json:"http" yaml:"http"`

	Redis struct {
		Addr           string `env:"REDIS_ADDR,default=localhost:6379" json:"addr,omitempty" yaml:"addr,omitempty"`
		InboundStream  string `env:"MCP_INBOUND_STREAM,default=mcp:inbound" json:"inboundStream,omitempty" yaml:"inboundStream,omitempty"`
		OutboundStream string `env:"MCP_OUTBOUND_STREAM,default=mcp:outbound" json:"outboundStream,omitempty" yaml:"outboundStream,omitempty"`
	} `json:"redis" yaml:"redis"`

	Log struct {
		// Level is one of debug, info, warn, error.
		Level string `env:"MCP_LOG_LEVEL,default=info" json:"level,omitempty" yaml:"level,omitempty"`
		// Format is json or text.
		Format string `env:"MCP_LOG_FORMAT,default=json" json:"format,omitempty" yaml:"format,omitempty"`
	} `json:"log" yaml:"log"`
}

// ErrInvalidConfig is wrapped by Validate failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load resolves the configuration from the environment and, when path is not
// empty, from the file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Decoding into the populated struct keeps values the file omits.
		if err := unmarshalConfig(data, &cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func unmarshalConfig(data []byte, cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportRedis:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Server.Name == "" {
		return fmt.Errorf("%w: server name must not be empty", ErrInvalidConfig)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
	return lvl, nil
}

// NewLogger builds the process logger writing to w. Records are decorated
// with request and rpc attributes from the context.
func NewLogger(c *Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if c.Log.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(logctx.Handler{Handler: h}), nil
}
