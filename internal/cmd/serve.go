package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/server"
)

// Serve command flags
var (
	servePort int
	serveHost string
)

// Serve mcp subcommand flags
var (
	mcpAllowTools []string
	mcpDenyTools  []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP server and change monitor",
	Long: `Start the local server for topic/bookmark access.

The server provides:
  - REST API for topics, bookmarks, titles, and settings
  - WebSocket stream of conversation change events
  - Prometheus metrics at /metrics

All data stays on your machine.

Use 'chatmarks serve mcp' for MCP (Model Context Protocol) access.

Examples:
  chatmarks serve                 # Start HTTP server on default port 7845
  chatmarks serve -p 8080         # Start on custom port`,
	RunE: runServeHTTP,
}

var serveMcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

Tools: active_conversation, list_topics, add_topic, set_bookmark, get_stats.

Examples:
  chatmarks serve mcp                         # All tools
  chatmarks serve mcp --deny-tool add_topic   # Read-mostly surface`,
	RunE: runServeMCP,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 7845, "port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "host to bind to")
	serveMcpCmd.Flags().StringArrayVar(&mcpAllowTools, "allow-tool", nil, "only register these tools")
	serveMcpCmd.Flags().StringArrayVar(&mcpDenyTools, "deny-tool", nil, "never register these tools")
	serveCmd.AddCommand(serveMcpCmd)
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		applog.Log.Info("received interrupt, shutting down")
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()
	return ctx, cancel
}

func runServeHTTP(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	applog.Log.Info("starting server", "port", servePort, "host", serveHost)

	if err := eng.monitor.Start(); err != nil {
		return err
	}

	srv := server.NewHTTPServer(server.Deps{
		Identity:  eng.identity,
		Reader:    eng.reader,
		Store:     eng.store,
		Scheduler: eng.scheduler,
		Feed:      eng.feed,
		AppConfig: eng.cfg,
	}, server.Config{
		Host:       serveHost,
		Port:       servePort,
		ConfigPath: configPath,
	})

	ctx, cancel := signalContext()
	defer cancel()

	// Render an initial view so /api/v1/panel has content immediately.
	eng.scheduler.RequestRefresh()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	return g.Wait()
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	if err := eng.monitor.Start(); err != nil {
		return err
	}

	ms := server.NewMCPServer(server.Deps{
		Identity:  eng.identity,
		Reader:    eng.reader,
		Store:     eng.store,
		Scheduler: eng.scheduler,
		Feed:      eng.feed,
		AppConfig: eng.cfg,
	})
	if len(mcpAllowTools) > 0 || len(mcpDenyTools) > 0 {
		ms.SetToolFilters(mcpAllowTools, mcpDenyTools)
	}

	ctx, cancel := signalContext()
	defer cancel()

	return ms.RunStdio(ctx)
}
