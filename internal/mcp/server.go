// Package mcp exposes newsletter issues and founder chat as MCP tools over
// stdio.
package mcp

import (
	"context"
	"errors"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xyz-social/newsletter/internal/chat"
	"github.com/xyz-social/newsletter/internal/identity"
	"github.com/xyz-social/newsletter/internal/inbox"
	"github.com/xyz-social/newsletter/internal/issues"
)

// MaxTimeout caps the reply wait of send_message.
const MaxTimeout = 300 * time.Second

// Deps are the collaborators the tools work with.
type Deps struct {
	Issues     *issues.Store
	Identities identity.Repository
	API        chat.Sender
	// Messages is polled for replies and read by check_inbox.
	Messages inbox.Source
	// History, when set, logs messages sent through send_message.
	History chat.Recorder

	PollInterval time.Duration
	WaitTimeout  time.Duration
}

// Server is the newsletter MCP server.
type Server struct {
	deps    Deps
	version string
	now     func() time.Time
	server  *gomcp.Server
}

// Option configures the MCP server.
type Option func(*Server)

// WithVersion sets the server version string.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates an MCP server with all tools registered.
func NewServer(deps Deps, opts ...Option) (*Server, error) {
	if deps.Issues == nil {
		return nil, errors.New("issue store is required")
	}
	if deps.Identities == nil || deps.API == nil || deps.Messages == nil {
		return nil, errors.New("identity, API and message source are required")
	}

	s := &Server{
		deps:    deps,
		version: "dev",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "newsletter",
			Version: s.version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// Run serves on stdin/stdout until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_issues",
		Description: "List the newsletter issues available locally",
	}, s.handleListIssues)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "read_issue",
		Description: "Return the markdown of one newsletter issue by number",
	}, s.handleReadIssue)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "latest_issue",
		Description: "Return the markdown of the most recent newsletter issue",
	}, s.handleLatestIssue)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "send_message",
		Description: "Send a message to the founder as the saved subscriber and wait for a reply",
	}, s.handleSendMessage)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "check_inbox",
		Description: "List past messages to the founder with their replies",
	}, s.handleCheckInbox)
}
