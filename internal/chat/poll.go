package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PollWaiter looks for the reply by fetching the user's messages at a fixed
// interval until the budget runs out. Fetch errors are retried.
type PollWaiter struct {
	Lister   MessageLister
	Interval time.Duration
	Budget   time.Duration
	Spinner  Ticker
}

// WaitForReply implements ReplyWaiter.
func (p *PollWaiter) WaitForReply(ctx context.Context, userID, messageID string) (WaitResult, error) {
	budget := orDefault(p.Budget, DefaultBudget)
	interval := orDefault(p.Interval, DefaultPollInterval)

	waitCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	defer stop(p.Spinner)

	anim := time.NewTicker(animInterval)
	defer anim.Stop()

	next := time.NewTimer(0)
	defer next.Stop()

	attempts := 0
	for {
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return WaitResult{Status: StatusNotFound}, err
			}
			log.Debug().Str("message_id", messageID).Int("attempts", attempts).Msg("no reply within budget")
			return WaitResult{Status: StatusNotFound}, nil

		case <-anim.C:
			tick(p.Spinner)

		case <-next.C:
			attempts++
			msgs, err := p.Lister.ListMessages(waitCtx, userID)
			if err != nil {
				log.Debug().Err(err).Str("message_id", messageID).Int("attempt", attempts).Msg("poll failed")
			} else if r, ok := FindReply(msgs, messageID); ok {
				log.Debug().Str("message_id", messageID).Int("attempts", attempts).Msg("reply found")
				return found(r), nil
			}
			next.Reset(interval)
		}
	}
}
