package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joinrollin/rollin-mcp/config"
	"github.com/joinrollin/rollin-mcp/mcp"
	"github.com/joinrollin/rollin-mcp/rollin"
)

const portalURL = "https://joinrollin.com/portal.html"

// streams are the process's standard streams, swapped out in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// newRootCmd builds the rollin-mcp command. Flags are bound to v so that
// command-line values take precedence over ROLLIN_* environment variables.
func newRootCmd(v *viper.Viper, s streams) *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:     "rollin-mcp",
		Short:   "MCP server for the ROLLIN wheelchair accessibility API",
		Long:    `Exposes the ROLLIN accessibility API (locations, scores, regions, feedback) as MCP tools over stdio or HTTP.

Settings come from ROLLIN_* environment variables (ROLLIN_API_KEY is required).
No dotenv file is read unless --env-file names one; relative paths resolve
against the working directory of the process, which for stdio servers is
chosen by the launching client.`,
		Version: rollin.ServerVersion,
		Args:    cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, envFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, s)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment (ignored if missing)")
	flags.String("transport", config.TransportStdio, "transport to serve on: stdio or http")
	flags.String("port", config.DefaultPort, "listen port for the http transport")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")

	_ = v.BindPFlag(config.KeyTransport, flags.Lookup("transport"))
	_ = v.BindPFlag(config.KeyPort, flags.Lookup("port"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	return cmd
}

// execute runs the command with args and returns the process exit code.
func execute(ctx context.Context, args []string, s streams) int {
	cmd := newRootCmd(config.New(), s)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, config.ErrMissingAPIKey):
		fmt.Fprintf(s.err, "Error: %s.\n", config.ErrMissingAPIKey)
		fmt.Fprintf(s.err, "Get your free API key at %s\n", portalURL)
		return 1
	default:
		fmt.Fprintf(s.err, "Fatal error: %v\n", err)
		return 1
	}
}

// serve wires the client, tools and resource into an MCP server and blocks on
// the configured transport until input ends or ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, s streams) error {
	logger := slog.New(slog.NewTextHandler(s.err, &slog.HandlerOptions{Level: cfg.Level()}))

	client, err := rollin.NewClient(rollin.ClientConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIBase,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	server := mcp.NewServer(mcp.ServerConfig{
		Name:      rollin.ServerName,
		Version:   rollin.ServerVersion,
		Tools:     rollin.Tools(client),
		Resources: []mcp.Resource{rollin.APIInfoResource()},
		Logger:    logger,
	})
	if err := server.Validate(); err != nil {
		return fmt.Errorf("invalid server registration: %w", err)
	}

	switch cfg.Transport {
	case config.TransportHTTP:
		transport := mcp.NewHTTPTransport(server, logger, mcp.NewStaticKeyValidator(cfg.MCPToken)).
			WithAuthHeaderType(mcp.AuthHeaderType(cfg.MCPAuthHeader))
		ln, err := net.Listen("tcp", ":"+cfg.Port)
		if err != nil {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		fmt.Fprintln(s.err, "ROLLIN MCP server running")
		return transport.Serve(ctx, ln)
	default:
		transport := mcp.NewStdioTransportWithIO(server, logger, s.in, s.out)
		fmt.Fprintln(s.err, "ROLLIN MCP server running")
		return transport.Start(ctx)
	}
}
