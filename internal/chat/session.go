package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xyz-social/newsletter/internal/api"
	"github.com/xyz-social/newsletter/internal/cli"
	"github.com/xyz-social/newsletter/internal/identity"
)

// Sender posts a chat message.
type Sender interface {
	SendMessage(ctx context.Context, msg api.OutboundMessage) (*api.SendResult, error)
}

// InboxViewer prints a user's conversation threads, labelling the user's
// own messages with selfName.
type InboxViewer interface {
	ShowAs(ctx context.Context, w io.Writer, userID, selfName string) error
}

// Recorder keeps a local log of the conversation.
type Recorder interface {
	RecordSent(ctx context.Context, userID, messageID, content string, at time.Time) error
	RecordReply(ctx context.Context, userID string, reply api.Reply, at time.Time) error
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// healthTimeout bounds the startup health check.
const healthTimeout = 2 * time.Second

// SessionOptions wires a Session. Identities, API and Waiter are required.
type SessionOptions struct {
	Identities identity.Repository
	API        Sender
	Waiter     ReplyWaiter
	Inbox      InboxViewer
	History    Recorder

	In    io.Reader
	Out   io.Writer
	Theme *cli.Theme

	// Exit terminates the process for /exit. Defaults to os.Exit.
	Exit func(code int)
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Session is one interactive chat: identify, then read, send and await
// replies until the user leaves.
type Session struct {
	opts  SessionOptions
	in    *bufio.Reader
	out   io.Writer
	theme *cli.Theme

	ident identity.Identity
}

// ErrInputClosed is returned when input ends before the user is identified.
var ErrInputClosed = errors.New("input closed")

// NewSession creates a session. Missing optional fields get defaults.
func NewSession(opts SessionOptions) *Session {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Theme == nil {
		opts.Theme = cli.NewTheme(opts.Out)
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		opts:  opts,
		in:    bufio.NewReader(opts.In),
		out:   opts.Out,
		theme: opts.Theme,
	}
}

// Identity returns the identity the session chats as.
func (s *Session) Identity() identity.Identity {
	return s.ident
}

// Run drives the session until two consecutive empty lines, end of input,
// /exit or cancellation of ctx. Send and wait failures are reported to the
// user and never end the session.
func (s *Session) Run(ctx context.Context) error {
	go s.checkHealth(ctx)

	if err := s.identify(); err != nil {
		return err
	}

	s.println(s.theme.Paint(s.theme.Title, "\nEnter your message (press Enter twice to exit):"))

	last := ""
	for {
		line, err := s.prompt("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.println(s.theme.Paint(s.theme.Warn, "\nExiting chat..."))
				return nil
			}
			return err
		}

		if line == "" && last == "" {
			s.println(s.theme.Paint(s.theme.Warn, "\nExiting chat..."))
			return nil
		}

		if strings.HasPrefix(line, "/") {
			if exit := s.handleCommand(ctx, line); exit {
				return nil
			}
			last = ""
			continue
		}

		last = line
		if line == "" {
			continue
		}
		if err := s.send(ctx, line); err != nil {
			return err
		}
	}
}

// identify loads the stored identity and asks for whatever is missing.
func (s *Session) identify() error {
	s.ident = s.opts.Identities.Load()
	if s.ident.Complete() {
		return nil
	}

	s.println(s.theme.Paint(s.theme.Title, "\nPlease provide your information:"))

	name, err := s.prompt("Name: ")
	if err != nil {
		return s.inputErr(err)
	}
	email, err := s.prompt("Email: ")
	if err != nil {
		return s.inputErr(err)
	}
	for !identity.ValidEmail(email) {
		s.println(s.theme.Paint(s.theme.Error, "Invalid email format"))
		if email, err = s.prompt("Email: "); err != nil {
			return s.inputErr(err)
		}
	}

	saved, err := s.opts.Identities.SaveInfo(name, email)
	if err != nil {
		log.Warn().Err(err).Msg("could not save identity")
		s.println(s.theme.Paint(s.theme.Error, "Error: could not save your details: "+err.Error()))
	}
	s.ident = saved
	return nil
}

// send shows the message optimistically, posts it and waits for the reply.
// Only cancellation of ctx is returned as an error.
func (s *Session) send(ctx context.Context, content string) error {
	sentAt := s.opts.Now()
	s.println(cli.ChatLine(s.theme, cli.Clock(sentAt), s.ident.Name, content, false))

	res, err := s.opts.API.SendMessage(ctx, api.OutboundMessage{
		User:    api.User{ID: s.ident.ID, Email: s.ident.Email, Name: s.ident.Name},
		Content: content,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		log.Debug().Err(err).Msg("send failed")
		s.println(s.theme.Paint(s.theme.Error, "Error: "+err.Error()))
		return nil
	}

	if s.opts.History != nil {
		if err := s.opts.History.RecordSent(ctx, s.ident.ID, res.MessageID, content, sentAt); err != nil {
			log.Warn().Err(err).Str("message_id", res.MessageID).Msg("could not record sent message")
		}
	}

	result, err := s.opts.Waiter.WaitForReply(ctx, s.ident.ID, res.MessageID)
	if err != nil {
		return err
	}
	if result.Status != StatusFound || result.Reply == nil {
		s.println(s.theme.Paint(s.theme.Warn, "\nNo reply received yet"))
		return nil
	}

	reply := *result.Reply
	shownAt := reply.CreatedAt
	if shownAt.IsZero() {
		shownAt = s.opts.Now()
	}
	s.println(cli.ChatLine(s.theme, cli.Clock(shownAt), reply.SenderName, reply.Content, true))

	if s.opts.History != nil {
		if err := s.opts.History.RecordReply(ctx, s.ident.ID, reply, shownAt); err != nil {
			log.Warn().Err(err).Str("message_id", res.MessageID).Msg("could not record reply")
		}
	}
	return nil
}

// checkHealth logs whether the chat endpoint answers. It runs alongside
// the session and never delays or fails it.
func (s *Session) checkHealth(ctx context.Context) {
	hc, ok := s.opts.API.(healthChecker)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := hc.Health(ctx); err != nil {
		log.Debug().Err(err).Msg("api health check failed")
		return
	}
	log.Debug().Msg("api healthy")
}

// prompt writes label and reads one line without its line ending. A final
// unterminated line is returned before io.EOF.
func (s *Session) prompt(label string) (string, error) {
	_, _ = fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Session) inputErr(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrInputClosed
	}
	return err
}

func (s *Session) println(line string) {
	_, _ = fmt.Fprintln(s.out, line)
}
