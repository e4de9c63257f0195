// Package cli wires configuration, the dispatcher and a transport into the
// mcp-handshake command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ggoodman/mcp-handshake-go/internal/config"
	"github.com/ggoodman/mcp-handshake-go/mcp"
	"github.com/ggoodman/mcp-handshake-go/mcpserver"
	"github.com/ggoodman/mcp-handshake-go/redisstream"
	"github.com/ggoodman/mcp-handshake-go/stdio"
	"github.com/ggoodman/mcp-handshake-go/streaminghttp"
	"github.com/spf13/cobra"
)

// ErrUnknownSchema is returned by the schema command for names it does not know.
var ErrUnknownSchema = errors.New("unknown schema")

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	configPath    string
	transport     string
	addr          string
	name          string
	serverVersion string
}

// Execute runs the root command with ctx. Errors are returned, not printed.
func Execute(ctx context.Context, version string, args []string) error {
	cmd := NewRootCommand(version)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "mcp-handshake",
		Short:         "Minimal MCP server answering initialize and ping",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newSchemaCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio, HTTP or Redis Streams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, &f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to a YAML or JSON config file")
	cmd.Flags().StringVarP(&f.transport, "transport", "t", "", "transport: stdio, http or redis")
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address for the http transport")
	cmd.Flags().StringVar(&f.name, "name", "", "server name reported by initialize")
	cmd.Flags().StringVar(&f.serverVersion, "server-version", "", "server version reported by initialize")
	return cmd
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = f.transport
	}
	if flags.Changed("addr") {
		cfg.HTTP.Addr = f.addr
	}
	if flags.Changed("name") {
		cfg.Server.Name = f.name
	}
	if flags.Changed("server-version") {
		cfg.Server.Version = f.serverVersion
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout may carry the stdio transport; logs always go to stderr.
	log, err := config.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	srv := mcpserver.NewServer(
		mcpserver.WithServerInfo(mcp.ImplementationInfo{Name: cfg.Server.Name, Version: cfg.Server.Version}),
		mcpserver.WithInvalidRequestReplies(cfg.Server.InvalidRequestReplies),
		mcpserver.WithLogger(log),
	)

	ctx := cmd.Context()
	info := srv.ServerInfo()
	log.InfoContext(ctx, "cli.serve.start",
		slog.String("transport", cfg.Transport),
		slog.String("server_name", info.Name),
		slog.String("server_version", info.Version),
	)

	switch cfg.Transport {
	case config.TransportHTTP:
		err = serveHTTP(ctx, cfg, srv, log)
	case config.TransportRedis:
		err = serveRedis(ctx, cfg, srv, log)
	default:
		h := stdio.NewHandler(srv,
			stdio.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
			stdio.WithLogger(log),
		)
		err = h.Serve(ctx)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.InfoContext(ctx, "cli.serve.stop")
	return err
}

func serveHTTP(ctx context.Context, cfg *config.Config, srv mcpserver.MessageHandler, log *slog.Logger) error {
	h := streaminghttp.New(srv,
		streaminghttp.WithLogger(log),
		streaminghttp.WithPath(cfg.HTTP.Path),
		streaminghttp.WithMaxBodySize(cfg.HTTP.MaxBodySize),
	)
	hs := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	log.InfoContext(ctx, "cli.http.listen", slog.String("addr", cfg.HTTP.Addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	h.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func serveRedis(ctx context.Context, cfg *config.Config, srv mcpserver.MessageHandler, log *slog.Logger) error {
	h, err := redisstream.NewFromConfig(ctx, srv, redisstream.Config{
		RedisAddr:      cfg.Redis.Addr,
		InboundStream:  cfg.Redis.InboundStream,
		OutboundStream: cfg.Redis.OutboundStream,
	}, redisstream.WithLogger(log))
	if err != nil {
		return err
	}
	defer h.Close()
	return h.Serve(ctx)
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [NAME]",
		Short: "Print the JSON Schema of the handshake messages",
		Long: "Print the JSON Schema of one message shape, or of all of them keyed by name.\n" +
			"Known names: " + fmt.Sprint(mcp.SchemaNames()),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any
			if len(args) == 1 {
				s, ok := mcp.Schema(args[0])
				if !ok {
					return fmt.Errorf("%w: %q", ErrUnknownSchema, args[0])
				}
				v = s
			} else {
				all := make(map[string]any)
				for _, name := range mcp.SchemaNames() {
					s, _ := mcp.Schema(name)
					all[name] = s
				}
				v = all
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}
