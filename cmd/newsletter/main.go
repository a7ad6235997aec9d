package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	goruntime "runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xyz-social/newsletter/internal/api"
	"github.com/xyz-social/newsletter/internal/cli"
	"github.com/xyz-social/newsletter/internal/config"
	"github.com/xyz-social/newsletter/internal/history"
	"github.com/xyz-social/newsletter/internal/identity"
	"github.com/xyz-social/newsletter/internal/issues"
	"github.com/xyz-social/newsletter/internal/logging"
	"github.com/xyz-social/newsletter/internal/paths"
)

var (
	// Build info (set via ldflags).
	Version = "dev"
	Build   = "unknown"
)

var (
	// Global flags.
	flagConfig  string
	flagJSON    bool
	flagQuiet   bool
	flagVerbose bool

	// cfg is resolved once in PersistentPreRunE.
	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsletter",
		Short: "Read the XYZ newsletter and chat with the founder",
		Long: `Newsletter is a terminal reader for the XYZ newsletter.

It lists and renders local markdown issues, and lets subscribers chat
with the founder: messages are sent over HTTP and replies arrive by
polling or over a real-time socket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default <home>/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "JSON output for scripting")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Suppress banner and hints")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Debug output")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("newsletter v{{.Version}} (build: " + Build + ", " + goruntime.Version() + ")\n")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		envErr := godotenv.Load()

		// "config init" may be pointed at a file that does not exist yet.
		loadPath := flagConfig
		if underCommand(cmd, "config") && !paths.Exists(loadPath) {
			loadPath = ""
		}
		c, err := config.Load(loadPath)
		if err != nil {
			return err
		}
		cfg = c

		logging.Setup(os.Stderr, cfg.LogLevel, flagVerbose)
		if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
			log.Warn().Err(envErr).Msg("could not load .env")
		}
		log.Debug().Str("home", cfg.Home).Str("issues_dir", cfg.IssuesDir).Msg("config loaded")

		if err := issues.NewStore(cfg.IssuesDir).EnsureDir(); err != nil {
			return err
		}

		if showBanner(cmd) {
			fmt.Print(cli.Banner(cli.NewTheme(os.Stdout)))
		}
		return nil
	}

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(readCmd())
	rootCmd.AddCommand(latestCmd())
	rootCmd.AddCommand(newCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(inboxCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(mcpCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// showBanner reports whether cmd prints the welcome box. Machine output and
// the MCP stdio server never do.
func showBanner(cmd *cobra.Command) bool {
	if flagQuiet || flagJSON {
		return false
	}
	return !underCommand(cmd, "mcp")
}

func underCommand(cmd *cobra.Command, name string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// isInteractive returns true if stdout is a terminal (not piped/redirected).
func isInteractive() bool {
	return cli.IsTerminal(os.Stdout)
}

func issueStore() *issues.Store {
	return issues.NewStore(cfg.IssuesDir)
}

func identities() *identity.FileStore {
	return identity.NewFileStore(paths.IdentityFile(cfg.Home))
}

func apiClient() *api.Client {
	return api.NewClient(cfg.ChatEndpoint, cfg.MessagesEndpoint, cfg.HTTPTimeout)
}

// openHistory opens the local message log. It returns nil when history is
// disabled or the log cannot be opened; chat works without it.
func openHistory() *history.Store {
	if !cfg.History {
		return nil
	}
	h, err := history.Open(paths.HistoryFile(cfg.Home))
	if err != nil {
		log.Warn().Err(err).Msg("local history unavailable")
		return nil
	}
	return h
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show newsletter version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagJSON {
				return printJSON(map[string]string{
					"version":    Version,
					"build":      Build,
					"go_version": goruntime.Version(),
				})
			}
			fmt.Printf("newsletter v%s (build: %s, %s)\n", Version, Build, goruntime.Version())
			return nil
		},
	}
	return cmd
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored subscriber identity",
		Long: `Show the subscriber identity used for chat.

Reads the identity file directly; no network access is needed. A missing
identity file is created with a new id. When local history is enabled the
number of logged messages and replies is shown too.

Examples:
  newsletter whoami
  newsletter whoami --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := identities()
			ident := store.Load()
			sent, replies, haveHistory := historyCounts(cmd.Context(), ident.ID)

			if flagJSON {
				out := map[string]any{
					"id":            ident.ID,
					"name":          ident.Name,
					"email":         ident.Email,
					"identity_file": store.Path(),
				}
				if ident.InfoUpdated != nil {
					out["info_updated"] = ident.InfoUpdated.Format(time.RFC3339)
				}
				if haveHistory {
					out["history"] = map[string]int{"messages": sent, "replies": replies}
				}
				return printJSON(out)
			}

			fmt.Printf("Name:     %s\n", orNotSet(ident.Name))
			fmt.Printf("Email:    %s\n", orNotSet(ident.Email))
			fmt.Printf("ID:       %s\n", ident.ID)
			fmt.Printf("Identity: %s\n", store.Path())
			if ident.InfoUpdated != nil {
				fmt.Printf("Updated:  %s\n", cli.Relative(*ident.InfoUpdated, time.Now()))
			}
			if haveHistory {
				fmt.Printf("History:  %d messages, %d replies\n", sent, replies)
			}
			fmt.Print(cli.Hint("whoami", flagQuiet, flagJSON))
			return nil
		},
	}
	return cmd
}

// historyCounts reports how many messages and replies the local log holds
// for userID. ok is false when history is disabled or unreadable.
func historyCounts(ctx context.Context, userID string) (sent, replies int, ok bool) {
	h := openHistory()
	if h == nil {
		return 0, 0, false
	}
	defer func() { _ = h.Close() }()

	sent, replies, err := h.Count(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("could not count local history")
		return 0, 0, false
	}
	return sent, replies, true
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
