package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	newslettermcp "github.com/xyz-social/newsletter/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server integration",
	}

	cmd.AddCommand(mcpServeCmd())
	return cmd
}

func mcpServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start MCP stdio server for issues and founder chat",
		Long: `Starts an MCP server on stdin/stdout exposing the newsletter as tools
(list_issues, read_issue, latest_issue, send_message, check_inbox).

send_message needs a saved name and email; run 'newsletter chat' once
to set them.

Configure in an MCP client:
  {
    "mcpServers": {
      "newsletter": {
        "type": "stdio",
        "command": "newsletter",
        "args": ["mcp", "serve"]
      }
    }
  }`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPServe()
		},
	}
	return cmd
}

func runMCPServe() error {
	client := apiClient()
	deps := newslettermcp.Deps{
		Issues:       issueStore(),
		Identities:   identities(),
		API:          client,
		Messages:     client,
		PollInterval: cfg.PollInterval,
		WaitTimeout:  cfg.WaitTimeout,
	}
	if h := openHistory(); h != nil {
		defer func() { _ = h.Close() }()
		deps.History = h
	}

	server, err := newslettermcp.NewServer(deps, newslettermcp.WithVersion(Version))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Blocks on stdio until the client disconnects.
	return server.Run(ctx)
}
