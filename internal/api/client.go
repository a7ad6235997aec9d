// Package api is the HTTP client for the newsletter chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xyz-social/newsletter/internal/identity"
)

// ErrStatus is wrapped by errors for non-2xx responses. The message reads
// "API error: <code>".
var ErrStatus = errors.New("API error")

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const (
	userAgent       = "newsletter-cli"
	maxResponseSize = 4 << 20
)

// Client talks to the chat and messages endpoints.
type Client struct {
	chatURL     string
	messagesURL string
	http        *http.Client
}

// NewClient creates a client. timeout bounds each request.
func NewClient(chatURL, messagesURL string, timeout time.Duration) *Client {
	return &Client{
		chatURL:     chatURL,
		messagesURL: messagesURL,
		http:        &http.Client{Timeout: timeout},
	}
}

// SendMessage posts msg and returns the server-assigned message id.
func (c *Client) SendMessage(ctx context.Context, msg OutboundMessage) (*SendResult, error) {
	var result SendResult
	if err := c.do(ctx, http.MethodPost, c.chatURL, msg, &result); err != nil {
		return nil, err
	}
	if result.MessageID == "" {
		return nil, fmt.Errorf("send message: response has no messageId")
	}
	return &result, nil
}

// ListMessages returns every message the server holds for userID, originals
// and replies alike.
func (c *Client) ListMessages(ctx context.Context, userID string) ([]Message, error) {
	u, err := url.Parse(c.messagesURL)
	if err != nil {
		return nil, fmt.Errorf("parse messages endpoint: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	var resp messagesResponse
	if err := c.do(ctx, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Health probes the backend. It never needs to succeed for sending to work.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, HealthURL(c.chatURL), nil, nil)
}

// HealthURL derives the health endpoint from the chat endpoint by swapping
// "/chat" for "/health".
func HealthURL(chatURL string) string {
	if strings.HasSuffix(chatURL, "/chat") {
		return strings.TrimSuffix(chatURL, "/chat") + "/health"
	}
	return strings.Replace(chatURL, "/chat", "/health", 1)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := identity.NewRequestID()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("url", endpoint).Str("request_id", requestID).Msg("api request failed")
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug().
		Str("method", method).
		Str("url", endpoint).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
