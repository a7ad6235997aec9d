package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xyz-social/newsletter/internal/chat"
	"github.com/xyz-social/newsletter/internal/cli"
	"github.com/xyz-social/newsletter/internal/inbox"
)

func chatCmd() *cobra.Command {
	var (
		useSocket bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the founder",
		Long: `Start an interactive chat with the founder.

Each message is sent over HTTP, then the reply is awaited by polling the
messages endpoint. With --socket the reply is awaited over a real-time
socket instead, falling back to polling if the socket cannot be used.

Press Enter on two consecutive empty lines, or type /exit, to leave.
Type /help for the list of commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("socket") {
				useSocket = cfg.UseSocket
			}
			if timeout <= 0 {
				timeout = cfg.WaitTimeout
			}
			return runChat(useSocket, timeout)
		},
	}

	cmd.Flags().BoolVarP(&useSocket, "socket", "s", false, "Wait for replies over the real-time socket")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for each reply (default from config, 30s)")
	return cmd
}

func runChat(useSocket bool, budget time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := os.Stdout
	theme := cli.NewTheme(out)
	client := apiClient()
	ids := identities()
	spinner := cli.NewSpinner(out, "Waiting for reply...", isInteractive())

	poll := &chat.PollWaiter{
		Lister:   client,
		Interval: cfg.PollInterval,
		Budget:   budget,
		Spinner:  spinner,
	}
	var waiter chat.ReplyWaiter = poll
	if useSocket {
		waiter = &chat.FallbackWaiter{
			Primary: &chat.SocketWaiter{
				Endpoint: cfg.SocketEndpoint,
				Budget:   budget,
				Spinner:  spinner,
			},
			Secondary: poll,
			Out:       out,
		}
	}

	var recorder chat.Recorder
	if h := openHistory(); h != nil {
		defer func() { _ = h.Close() }()
		recorder = h
	}

	session := chat.NewSession(chat.SessionOptions{
		Identities: ids,
		API:        client,
		Waiter:     waiter,
		Inbox: &inbox.Viewer{
			Source: client,
			Theme:  theme,
		},
		History: recorder,
		In:      os.Stdin,
		Out:     out,
		Theme:   theme,
	})

	fmt.Print(cli.Hint("chat", flagQuiet, flagJSON))

	err := session.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Println(theme.Paint(theme.Warn, "\nExiting chat..."))
		return nil
	case errors.Is(err, chat.ErrInputClosed):
		return nil
	}
	return err
}

func inboxCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show your conversations with the founder",
		Long: `Show past messages grouped by conversation, each original followed by
its replies.

By default messages are fetched from the server. With --local the
history kept on this machine is shown instead, with relative times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ident := identities().Load()

			var src inbox.Source = apiClient()
			if local {
				h := openHistory()
				if h == nil {
					return errors.New("local history is not available; check the history setting and --verbose output")
				}
				defer func() { _ = h.Close() }()
				src = h
			}

			viewer := &inbox.Viewer{
				Source:        src,
				Theme:         cli.NewTheme(os.Stdout),
				SelfName:      ident.Name,
				JSON:          flagJSON,
				RelativeTimes: local,
			}
			if flagJSON {
				return viewer.Show(ctx, os.Stdout, ident.ID)
			}

			threads := inbox.GroupByThread(inbox.Fetch(ctx, src, ident.ID))
			fmt.Print(viewer.Format(threads))
			if countOriginals(threads) == 0 {
				fmt.Print(cli.Hint("inbox.empty", flagQuiet, flagJSON))
			} else {
				fmt.Print(cli.Hint("inbox", flagQuiet, flagJSON))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Show the local history instead of fetching from the server")
	return cmd
}

func countOriginals(threads []inbox.Thread) int {
	n := 0
	for _, t := range threads {
		if t.Original != nil {
			n++
		}
	}
	return n
}
