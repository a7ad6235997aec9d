package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xyz-social/newsletter/internal/cli"
)

// command is a slash command. run reports whether the session should end.
type command struct {
	name string
	run  func(s *Session, ctx context.Context, args []string) bool
}

// commandOrder is the order commands are listed by /help.
var commandOrder = []string{"help", "exit", "inbox", "setname", "clear"}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {name: "help", run: (*Session).cmdHelp},
		"exit":    {name: "exit", run: (*Session).cmdExit},
		"inbox":   {name: "inbox", run: (*Session).cmdInbox},
		"setname": {name: "setname", run: (*Session).cmdSetName},
		"clear":   {name: "clear", run: (*Session).cmdClear},
	}
}

// handleCommand runs a line starting with "/". The return value reports
// whether the session should end.
func (s *Session) handleCommand(ctx context.Context, line string) bool {
	name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	args := strings.Fields(rest)

	cmd, ok := commands[name]
	if !ok {
		s.println(s.theme.Paint(s.theme.Error, "Unknown command: /"+name))
		return false
	}
	log.Debug().Str("command", cmd.name).Int("args", len(args)).Msg("slash command")
	return cmd.run(s, ctx, args)
}

func (s *Session) cmdHelp(_ context.Context, _ []string) bool {
	names := make([]string, len(commandOrder))
	for i, n := range commandOrder {
		names[i] = "/" + n
	}
	s.println(s.theme.Paint(s.theme.Title, "Available commands: "+strings.Join(names, ", ")))
	return false
}

func (s *Session) cmdExit(_ context.Context, _ []string) bool {
	s.println(s.theme.Paint(s.theme.Warn, "Exiting chat..."))
	s.opts.Exit(0)
	return true
}

func (s *Session) cmdInbox(ctx context.Context, _ []string) bool {
	if s.opts.Inbox == nil {
		s.println(s.theme.Paint(s.theme.Error, "Inbox command not available."))
		return false
	}
	if err := s.opts.Inbox.ShowAs(ctx, s.out, s.ident.ID, s.ident.Name); err != nil {
		log.Warn().Err(err).Msg("inbox failed")
		s.println(s.theme.Paint(s.theme.Error, "Inbox command not available."))
	}
	return false
}

func (s *Session) cmdClear(_ context.Context, _ []string) bool {
	cli.ClearScreen(s.out)
	return false
}

// cmdSetName renames the user, keeping the email from the session or, if
// the session has none, from the stored identity.
func (s *Session) cmdSetName(_ context.Context, args []string) bool {
	if len(args) == 0 {
		s.println(s.theme.Paint(s.theme.Warn, "Usage: /setname <newname>"))
		return false
	}
	name := strings.Join(args, " ")

	email := s.ident.Email
	if email == "" {
		email = s.opts.Identities.Load().Email
	}
	if email == "" {
		s.println(s.theme.Paint(s.theme.Error, "Could not determine your email."))
		return false
	}

	saved, err := s.opts.Identities.SaveInfo(name, email)
	if err != nil {
		s.println(s.theme.Paint(s.theme.Error, "Error: "+err.Error()))
		return false
	}
	s.ident = saved
	s.println(s.theme.Paint(s.theme.Success, "Name updated to "+name))
	return false
}
