package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/xyz-social/newsletter/internal/api"
	"github.com/xyz-social/newsletter/internal/chat"
	"github.com/xyz-social/newsletter/internal/inbox"
	"github.com/xyz-social/newsletter/internal/issues"
)

const defaultInboxLimit = 50

func (s *Server) handleListIssues(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input ListIssuesInput,
) (*gomcp.CallToolResult, ListIssuesOutput, error) {
	list, err := s.deps.Issues.Issues()
	if err != nil {
		return nil, ListIssuesOutput{}, fmt.Errorf("list issues: %w", err)
	}

	out := ListIssuesOutput{Issues: make([]IssueInfo, 0, len(list))}
	for _, is := range list {
		out.Issues = append(out.Issues, IssueInfo{Number: is.Number, Title: is.Title, File: is.Name})
	}
	out.Count = len(out.Issues)
	return nil, out, nil
}

func (s *Server) handleReadIssue(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input ReadIssueInput,
) (*gomcp.CallToolResult, IssueOutput, error) {
	content, err := s.deps.Issues.Read(input.Number)
	if errors.Is(err, issues.ErrNotFound) {
		return nil, IssueOutput{}, fmt.Errorf("issue #%d not found", input.Number)
	}
	if err != nil {
		return nil, IssueOutput{}, err
	}
	return nil, IssueOutput{Number: input.Number, Title: issues.Title(content), Content: content}, nil
}

func (s *Server) handleLatestIssue(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input LatestIssueInput,
) (*gomcp.CallToolResult, IssueOutput, error) {
	is, content, err := s.deps.Issues.Latest()
	if errors.Is(err, issues.ErrNotFound) {
		return nil, IssueOutput{}, errors.New("no issues found")
	}
	if err != nil {
		return nil, IssueOutput{}, err
	}
	return nil, IssueOutput{Number: is.Number, Title: is.Title, Content: content}, nil
}

// handleSendMessage sends as the saved subscriber and polls for the reply.
func (s *Server) handleSendMessage(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input SendMessageInput,
) (*gomcp.CallToolResult, SendMessageOutput, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, SendMessageOutput{}, errors.New("'content' is required")
	}

	ident := s.deps.Identities.Load()
	if !ident.Complete() {
		return nil, SendMessageOutput{}, fmt.Errorf("subscriber name and email are not set in %s; run 'newsletter chat' once first", s.deps.Identities.Path())
	}

	sentAt := s.now()
	res, err := s.deps.API.SendMessage(ctx, api.OutboundMessage{
		User:    api.User{ID: ident.ID, Email: ident.Email, Name: ident.Name},
		Content: content,
	})
	if err != nil {
		return nil, SendMessageOutput{}, fmt.Errorf("send message: %w", err)
	}
	s.record(ctx, func(r chat.Recorder) error {
		return r.RecordSent(ctx, ident.ID, res.MessageID, content, sentAt)
	})

	waiter := &chat.PollWaiter{
		Lister:   s.deps.Messages,
		Interval: s.deps.PollInterval,
		Budget:   s.timeout(input.Timeout),
	}
	result, err := waiter.WaitForReply(ctx, ident.ID, res.MessageID)
	if err != nil {
		return nil, SendMessageOutput{}, err
	}

	out := SendMessageOutput{
		Status:        "no_reply",
		MessageID:     res.MessageID,
		WaitedSeconds: int(s.now().Sub(sentAt).Seconds()),
	}
	if result.Status == chat.StatusFound && result.Reply != nil {
		reply := *result.Reply
		out.Status = "reply_received"
		out.Reply = replyInfo(reply)
		s.record(ctx, func(r chat.Recorder) error {
			return r.RecordReply(ctx, ident.ID, reply, s.now())
		})
	}
	return nil, out, nil
}

func (s *Server) handleCheckInbox(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input CheckInboxInput,
) (*gomcp.CallToolResult, CheckInboxOutput, error) {
	ident := s.deps.Identities.Load()
	msgs, err := s.deps.Messages.ListMessages(ctx, ident.ID)
	if err != nil {
		return nil, CheckInboxOutput{}, fmt.Errorf("list messages: %w", err)
	}

	threads := make([]ThreadInfo, 0)
	for _, t := range inbox.GroupByThread(msgs) {
		if t.Original == nil {
			continue
		}
		info := ThreadInfo{
			MessageID: t.ID,
			Content:   t.Original.Content,
			Timestamp: t.Original.CreatedAt,
			Replies:   make([]ReplyInfo, 0, len(t.Replies)),
		}
		for _, r := range t.Replies {
			info.Replies = append(info.Replies, *replyInfo(r))
		}
		threads = append(threads, info)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if len(threads) > limit {
		threads = threads[len(threads)-limit:]
	}

	status := "messages"
	if len(threads) == 0 {
		status = "empty"
	}
	return nil, CheckInboxOutput{Status: status, Threads: threads}, nil
}

// timeout converts the requested seconds into a wait budget, capped at
// MaxTimeout.
func (s *Server) timeout(seconds int) time.Duration {
	if seconds <= 0 {
		if s.deps.WaitTimeout > 0 {
			return s.deps.WaitTimeout
		}
		return chat.DefaultBudget
	}
	return min(time.Duration(seconds)*time.Second, MaxTimeout)
}

func (s *Server) record(ctx context.Context, fn func(chat.Recorder) error) {
	if s.deps.History == nil {
		return
	}
	if err := fn(s.deps.History); err != nil {
		log.Warn().Err(err).Msg("could not record history")
	}
}

func replyInfo(r api.Reply) *ReplyInfo {
	info := &ReplyInfo{MessageID: r.ID, From: r.SenderName, Content: r.Content}
	if !r.CreatedAt.IsZero() {
		info.Timestamp = r.CreatedAt.Format(time.RFC3339)
	}
	return info
}
