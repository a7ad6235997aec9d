package chat

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// FallbackWaiter tries Primary and, if it reports StatusFallback, waits
// again with Secondary. The secondary wait gets its own full budget.
type FallbackWaiter struct {
	Primary   ReplyWaiter
	Secondary ReplyWaiter
	Out       io.Writer
}

// WaitForReply implements ReplyWaiter.
func (f *FallbackWaiter) WaitForReply(ctx context.Context, userID, messageID string) (WaitResult, error) {
	res, err := f.Primary.WaitForReply(ctx, userID, messageID)
	if err != nil || res.Status != StatusFallback {
		return res, err
	}

	log.Warn().Err(res.Err).Str("message_id", messageID).Msg("socket unavailable, polling instead")
	if f.Out != nil {
		if res.Err != nil {
			_, _ = fmt.Fprintf(f.Out, "\nSocket connection error: %v\n", res.Err)
		}
		_, _ = fmt.Fprintln(f.Out, "Falling back to polling...")
	}
	return f.Secondary.WaitForReply(ctx, userID, messageID)
}
