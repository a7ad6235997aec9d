// Package chat runs interactive chat sessions: it sends a message, then
// waits for the founder's reply either by polling the messages endpoint or
// over a real-time socket.
package chat

import (
	"context"
	"time"

	"github.com/xyz-social/newsletter/internal/api"
)

// Status is the outcome of a reply wait.
type Status string

const (
	// StatusFound means a reply arrived within the budget.
	StatusFound Status = "found"
	// StatusNotFound means the budget ran out without a reply.
	StatusNotFound Status = "not_found"
	// StatusFallback means the socket could not be used and the caller
	// should wait another way.
	StatusFallback Status = "fallback"
)

const (
	// DefaultBudget bounds a single wait.
	DefaultBudget = 30 * time.Second
	// DefaultPollInterval is the delay between two message fetches.
	DefaultPollInterval = time.Second

	animInterval = 100 * time.Millisecond
)

// WaitResult is returned exactly once per wait. Reply is set only when
// Status is StatusFound; Err explains a StatusFallback.
type WaitResult struct {
	Status Status
	Reply  *api.Reply
	Err    error
}

// ReplyWaiter waits for the reply to one sent message. Implementations
// return a non-nil error only when ctx is canceled; every other failure is
// folded into the result.
type ReplyWaiter interface {
	WaitForReply(ctx context.Context, userID, messageID string) (WaitResult, error)
}

// Ticker is a cosmetic progress indicator, typically *cli.Spinner.
type Ticker interface {
	Tick()
	Stop()
}

// MessageLister fetches a user's messages.
type MessageLister interface {
	ListMessages(ctx context.Context, userID string) ([]api.Message, error)
}

// FindReply returns the first message whose parent is messageID.
func FindReply(msgs []api.Message, messageID string) (api.Reply, bool) {
	for _, m := range msgs {
		if m.ParentID() == messageID {
			return m.Normalize(), true
		}
	}
	return api.Reply{}, false
}

func found(r api.Reply) WaitResult {
	return WaitResult{Status: StatusFound, Reply: &r}
}

func tick(t Ticker) {
	if t != nil {
		t.Tick()
	}
}

func stop(t Ticker) {
	if t != nil {
		t.Stop()
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
