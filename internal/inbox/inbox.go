// Package inbox shows a subscriber's past conversations grouped by thread.
package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xyz-social/newsletter/internal/api"
	"github.com/xyz-social/newsletter/internal/cli"
)

// Source lists a user's messages, originals and replies together.
type Source interface {
	ListMessages(ctx context.Context, userID string) ([]api.Message, error)
}

// Thread is an original message with its replies in fetch order. Original
// is nil when only replies to it were fetched.
type Thread struct {
	ID       string       `json:"id"`
	Original *api.Message `json:"original,omitempty"`
	Replies  []api.Reply  `json:"replies"`
}

// Fetch returns the user's messages. Any failure degrades to an empty list.
func Fetch(ctx context.Context, src Source, userID string) []api.Message {
	msgs, err := src.ListMessages(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("could not fetch messages")
		return nil
	}
	return msgs
}

// GroupByThread groups replies under the message they answer. Threads come
// out in the order their key was first seen.
func GroupByThread(msgs []api.Message) []Thread {
	var order []string
	byID := make(map[string]*Thread)

	get := func(id string) *Thread {
		t, ok := byID[id]
		if !ok {
			t = &Thread{ID: id, Replies: []api.Reply{}}
			byID[id] = t
			order = append(order, id)
		}
		return t
	}

	for i := range msgs {
		m := msgs[i]
		if parent := m.ParentID(); parent != "" {
			t := get(parent)
			t.Replies = append(t.Replies, m.Normalize())
			continue
		}
		get(m.ID).Original = &m
	}

	out := make([]Thread, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// Viewer renders threads to a writer.
type Viewer struct {
	Source Source
	Theme  *cli.Theme
	// SelfName labels originals that carry no user name. ShowAs overrides it.
	SelfName string
	// JSON prints the threads as JSON instead of text.
	JSON bool
	// RelativeTimes shows "3 minutes ago" instead of the clock time.
	RelativeTimes bool
	Now           func() time.Time
}

// Show fetches and prints userID's threads. It only fails when writing JSON
// fails.
func (v *Viewer) Show(ctx context.Context, w io.Writer, userID string) error {
	return v.ShowAs(ctx, w, userID, v.SelfName)
}

// ShowAs is Show with selfName labelling the user's own messages.
func (v *Viewer) ShowAs(ctx context.Context, w io.Writer, userID, selfName string) error {
	threads := GroupByThread(Fetch(ctx, v.Source, userID))

	if v.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(visible(threads)); err != nil {
			return fmt.Errorf("encode threads: %w", err)
		}
		return nil
	}

	_, _ = io.WriteString(w, v.format(threads, selfName))
	return nil
}

// Format renders threads as chat lines. Threads without an original print
// nothing.
func (v *Viewer) Format(threads []Thread) string {
	return v.format(threads, v.SelfName)
}

func (v *Viewer) format(threads []Thread, selfName string) string {
	th := v.theme()
	shown := visible(threads)
	if len(shown) == 0 {
		return th.Paint(th.Warn, "No messages found.") + "\n"
	}

	var out strings.Builder
	for _, t := range shown {
		name := selfName
		if t.Original.User != nil && t.Original.User.Name != "" {
			name = t.Original.User.Name
		}
		createdAt, _ := t.Original.Time()
		out.WriteString(cli.ChatLine(th, v.stamp(createdAt), name, t.Original.Content, false) + "\n")

		for _, r := range t.Replies {
			out.WriteString(cli.ChatLine(th, v.stamp(r.CreatedAt), r.SenderName, r.Content, true) + "\n")
		}
	}
	return out.String()
}

func (v *Viewer) stamp(t time.Time) string {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if t.IsZero() {
		t = now()
	}
	if v.RelativeTimes {
		return cli.Relative(t, now())
	}
	return cli.Clock(t)
}

func (v *Viewer) theme() *cli.Theme {
	if v.Theme == nil {
		return cli.NewPlainTheme()
	}
	return v.Theme
}

func visible(threads []Thread) []Thread {
	out := make([]Thread, 0, len(threads))
	for _, t := range threads {
		if t.Original != nil {
			out = append(out, t)
		}
	}
	return out
}
