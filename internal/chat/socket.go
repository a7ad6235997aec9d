package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/xyz-social/newsletter/internal/api"
)

// Socket event names.
const (
	EventRegister     = "register"
	EventSubscribe    = "subscribe"
	EventRegistered   = "registered"
	EventMessageReply = "message_reply"
	EventNewReply     = "new_reply"
)

// Event is one JSON text frame on the socket.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ReplyEvent is the payload of message_reply and new_reply. Reply is either
// the reply text or a full message object.
type ReplyEvent struct {
	MessageID string          `json:"messageId"`
	Reply     json.RawMessage `json:"reply"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// SocketWaiter subscribes to the reply over a WebSocket. Any connection
// problem ends the wait with StatusFallback.
type SocketWaiter struct {
	Endpoint string
	Budget   time.Duration
	Dialer   *websocket.Dialer
	Spinner  Ticker
}

// WaitForReply implements ReplyWaiter. The connection, the reader goroutine,
// the timers and the spinner are all released before it returns.
func (s *SocketWaiter) WaitForReply(ctx context.Context, userID, messageID string) (WaitResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, orDefault(s.Budget, DefaultBudget))
	defer cancel()
	defer stop(s.Spinner)

	wsURL, err := SocketURL(s.Endpoint)
	if err != nil {
		return WaitResult{Status: StatusFallback, Err: err}, nil
	}

	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(waitCtx, wsURL, nil)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return WaitResult{Status: StatusNotFound}, cerr
		}
		return WaitResult{Status: StatusFallback, Err: fmt.Errorf("connect to %s: %w", wsURL, err)}, nil
	}
	defer func() { _ = conn.Close() }()
	log.Debug().Str("url", wsURL).Msg("socket connected")

	if err := writeEvent(conn, EventRegister, map[string]string{"userId": userID}); err != nil {
		return WaitResult{Status: StatusFallback, Err: err}, nil
	}
	if err := writeEvent(conn, EventSubscribe, map[string]string{"messageId": messageID}); err != nil {
		return WaitResult{Status: StatusFallback, Err: err}, nil
	}

	done := make(chan struct{})
	defer close(done)
	events := make(chan Event)
	readErr := make(chan error, 1)
	go readEvents(conn, events, readErr, done)

	anim := time.NewTicker(animInterval)
	defer anim.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return WaitResult{Status: StatusNotFound}, err
			}
			return WaitResult{Status: StatusNotFound}, nil

		case err := <-readErr:
			return WaitResult{Status: StatusFallback, Err: fmt.Errorf("socket read: %w", err)}, nil

		case <-anim.C:
			tick(s.Spinner)

		case ev := <-events:
			switch ev.Event {
			case EventRegistered:
				log.Debug().Str("user_id", userID).Msg("registered with socket server")
			case EventMessageReply, EventNewReply:
				var data ReplyEvent
				if err := json.Unmarshal(ev.Data, &data); err != nil {
					log.Debug().Err(err).Str("event", ev.Event).Msg("ignoring malformed reply event")
					continue
				}
				if data.MessageID != messageID {
					continue
				}
				if r, ok := data.Normalize(); ok {
					return found(r), nil
				}
			}
		}
	}
}

// Normalize converts the event payload to a Reply. ok is false when the
// payload carries no reply.
func (e ReplyEvent) Normalize() (api.Reply, bool) {
	if len(e.Reply) == 0 || string(e.Reply) == "null" {
		return api.Reply{}, false
	}

	var r api.Reply
	var text string
	if err := json.Unmarshal(e.Reply, &text); err == nil {
		if text == "" {
			return api.Reply{}, false
		}
		r = api.Reply{Content: text, SenderName: api.DefaultSender}
	} else {
		var m api.Message
		if err := json.Unmarshal(e.Reply, &m); err != nil || m.Content == "" {
			return api.Reply{}, false
		}
		r = m.Normalize()
	}

	if r.ReplyTo == "" {
		r.ReplyTo = e.MessageID
	}
	if r.CreatedAt.IsZero() && e.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
			r.CreatedAt = t
		}
	}
	return r, true
}

// SocketURL maps an http(s) endpoint to the matching ws(s) URL.
func SocketURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse socket endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported socket scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func writeEvent(conn *websocket.Conn, name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := conn.WriteJSON(Event{Event: name, Data: raw}); err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	return nil
}

// readEvents forwards frames until the connection fails or done is closed.
func readEvents(conn *websocket.Conn, events chan<- Event, readErr chan<- error, done <-chan struct{}) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}

		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}

		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}
