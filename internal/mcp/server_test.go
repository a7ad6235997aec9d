package mcp

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xyz-social/newsletter/internal/api"
	"github.com/xyz-social/newsletter/internal/identity"
	"github.com/xyz-social/newsletter/internal/issues"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []api.OutboundMessage
	err  error
}

func (f *fakeAPI) SendMessage(_ context.Context, msg api.OutboundMessage) (*api.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	return &api.SendResult{MessageID: "m1"}, nil
}

type fakeMessages struct {
	msgs  []api.Message
	err   error
	users []string
}

func (f *fakeMessages) ListMessages(_ context.Context, userID string) ([]api.Message, error) {
	f.users = append(f.users, userID)
	return f.msgs, f.err
}

type fakeRecorder struct {
	sent    []string
	replies []api.Reply
}

func (f *fakeRecorder) RecordSent(_ context.Context, _, messageID, _ string, _ time.Time) error {
	f.sent = append(f.sent, messageID)
	return nil
}

func (f *fakeRecorder) RecordReply(_ context.Context, _ string, r api.Reply, _ time.Time) error {
	f.replies = append(f.replies, r)
	return nil
}

// newTestServer returns a server over a temp issue dir and identity file.
// When named is true the subscriber already has a name and email.
func newTestServer(t *testing.T, named bool, msgs *fakeMessages) (*Server, *fakeAPI, *issues.Store) {
	t.Helper()
	dir := t.TempDir()

	ids := identity.NewFileStore(filepath.Join(dir, "subscriber.json"))
	if named {
		if _, err := ids.SaveInfo("Ada", "ada@example.com"); err != nil {
			t.Fatalf("SaveInfo: %v", err)
		}
	}

	store := issues.NewStore(filepath.Join(dir, "issues"))
	fapi := &fakeAPI{}
	if msgs == nil {
		msgs = &fakeMessages{}
	}

	s, err := NewServer(Deps{
		Issues:       store,
		Identities:   ids,
		API:          fapi,
		Messages:     msgs,
		PollInterval: 5 * time.Millisecond,
		WaitTimeout:  50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, fapi, store
}

func TestNewServer(t *testing.T) {
	s, _, _ := newTestServer(t, false, nil)

	if s.version != "dev" {
		t.Errorf("expected default version 'dev', got %q", s.version)
	}
	if s.server == nil {
		t.Fatal("expected MCP server to be created")
	}
}

func TestNewServerWithVersion(t *testing.T) {
	dir := t.TempDir()
	s, err := NewServer(Deps{
		Issues:     issues.NewStore(dir),
		Identities: identity.NewFileStore(filepath.Join(dir, "id.json")),
		API:        &fakeAPI{},
		Messages:   &fakeMessages{},
	}, WithVersion("1.0.0"))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if s.version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", s.version)
	}
}

func TestNewServerMissingDeps(t *testing.T) {
	dir := t.TempDir()
	full := Deps{
		Issues:     issues.NewStore(dir),
		Identities: identity.NewFileStore(filepath.Join(dir, "id.json")),
		API:        &fakeAPI{},
		Messages:   &fakeMessages{},
	}

	tests := []struct {
		name   string
		mutate func(*Deps)
	}{
		{"no issues", func(d *Deps) { d.Issues = nil }},
		{"no identities", func(d *Deps) { d.Identities = nil }},
		{"no api", func(d *Deps) { d.API = nil }},
		{"no messages", func(d *Deps) { d.Messages = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := full
			tt.mutate(&d)
			if _, err := NewServer(d); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
