package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendMessage(t *testing.T) {
	var got OutboundMessage
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		requestID = r.Header.Get(RequestIDHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"messageId":"m-1","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/chat", srv.URL+"/api/messages", time.Second)
	res, err := c.SendMessage(context.Background(), OutboundMessage{
		User:    User{ID: "u-1", Email: "a@b.co", Name: "Ada"},
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.MessageID != "m-1" {
		t.Errorf("expected m-1, got %q", res.MessageID)
	}
	if got.User.ID != "u-1" || got.User.Email != "a@b.co" || got.User.Name != "Ada" || got.Content != "hello" {
		t.Errorf("unexpected body %+v", got)
	}
	if !strings.HasPrefix(requestID, "req_") {
		t.Errorf("expected request id header, got %q", requestID)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus bool
	}{
		{"server error", http.StatusInternalServerError, `{}`, true},
		{"bad request", http.StatusBadRequest, `{"error":"x"}`, true},
		{"missing id", http.StatusOK, `{}`, false},
		{"not json", http.StatusOK, `<html>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, srv.URL, time.Second).SendMessage(context.Background(), OutboundMessage{Content: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrStatus) != tt.wantStatus {
				t.Errorf("errors.Is(err, ErrStatus) = %v, want %v (err=%v)", !tt.wantStatus, tt.wantStatus, err)
			}
		})
	}
}

func TestSendMessage_StatusMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.URL, time.Second).SendMessage(context.Background(), OutboundMessage{})
	if err == nil || err.Error() != "API error: 503" {
		t.Errorf("expected 'API error: 503', got %v", err)
	}
}

func TestListMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if uid := r.URL.Query().Get("userId"); uid != "u 1&x" {
			t.Errorf("unexpected userId %q", uid)
		}
		_, _ = w.Write([]byte(`{"messages":[
			{"id":"a","content":"hi","createdAt":"2026-10-18T09:00:00.000Z","user":{"name":"Ada"}},
			{"id":"b","content":"yo","replyTo":"a","metadata":{"senderName":"Founder"}}
		]}`))
	}))
	defer srv.Close()

	msgs, err := NewClient(srv.URL+"/api/chat", srv.URL+"/api/messages", time.Second).ListMessages(context.Background(), "u 1&x")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].ParentID() != "a" || msgs[1].Sender() != "Founder" {
		t.Errorf("unexpected reply %+v", msgs[1])
	}
}

func TestListMessages_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	if _, err := NewClient(srv.URL, srv.URL, time.Second).ListMessages(context.Background(), "u"); err == nil {
		t.Error("expected error from closed server")
	}
}

func TestHealth(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL+"/api/chat", "", time.Second).Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if path != "/api/health" {
		t.Errorf("expected /api/health, got %s", path)
	}
}

func TestHealthURL(t *testing.T) {
	tests := map[string]string{
		"https://newsletter.xyz.social/api/chat": "https://newsletter.xyz.social/api/health",
		"http://chat.local/chat":                 "http://chat.local/health",
		"http://x/chat/v2":                       "http://x/health/v2",
		"http://x/send":                          "http://x/send",
	}
	for in, want := range tests {
		if got := HealthURL(in); got != want {
			t.Errorf("HealthURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL, srv.URL, 5*time.Second).ListMessages(ctx, "u"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
