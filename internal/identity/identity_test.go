package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.co", true},
		{"first.last@example.org", true},
		{"a@b", false},
		{"a.com", false},
		{"", false},
		{"a @b.co", false},
		{"a@@b.co", false},
		{"@b.co", false},
	}

	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestLoad_AbsentFileCreatesIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "subscriber.json")
	store := NewFileStore(path)

	ident := store.Load()
	if !validUUID(ident.ID) {
		t.Fatalf("expected a valid UUID, got %q", ident.ID)
	}
	if ident.Name != "" || ident.Email != "" {
		t.Errorf("expected no name/email, got %q/%q", ident.Name, ident.Email)
	}

	// Persisted, so a second store sees the same id.
	again := NewFileStore(path).Load()
	if again.ID != ident.ID {
		t.Errorf("expected persisted id %q, got %q", ident.ID, again.ID)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"garbage", "{not json"},
		{"array", "[1,2,3]"},
		{"null", "null"},
		{"missing id", `{"name":"Old","email":"old@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "subscriber.json")
			if err := os.WriteFile(path, []byte(tt.contents), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			store := NewFileStore(path)

			ident := store.Load()
			if !validUUID(ident.ID) {
				t.Fatalf("expected a valid UUID, got %q", ident.ID)
			}
			if ident.Name != "" || ident.Email != "" {
				t.Errorf("expected no name/email, got %q/%q", ident.Name, ident.Email)
			}

			// Same store keeps handing out the same temporary id.
			if again := store.Load(); again.ID != ident.ID {
				t.Errorf("expected stable temporary id %q, got %q", ident.ID, again.ID)
			}

			// The corrupt file is not rewritten by a load.
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(data) != tt.contents {
				t.Errorf("expected corrupt file untouched, got %q", data)
			}
		})
	}
}

func TestLoad_ExistingIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscriber.json")
	doc := `{"id":"0b5a2a52-7f39-4a57-9a6b-0cf3f2d5b4c1","name":"Ada","email":"ada@example.com","infoUpdated":"2026-01-02T03:04:05Z"}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ident := NewFileStore(path).Load()
	if ident.ID != "0b5a2a52-7f39-4a57-9a6b-0cf3f2d5b4c1" {
		t.Errorf("unexpected id %q", ident.ID)
	}
	if ident.Name != "Ada" || ident.Email != "ada@example.com" {
		t.Errorf("unexpected name/email %q/%q", ident.Name, ident.Email)
	}
	if !ident.Complete() {
		t.Error("expected identity to be complete")
	}
	if ident.InfoUpdated == nil || !ident.InfoUpdated.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected infoUpdated %v", ident.InfoUpdated)
	}
}

func TestSaveInfo_KeepsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscriber.json")
	store := NewFileStore(path)
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	original := store.Load()

	first, err := store.SaveInfo("Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("SaveInfo: %v", err)
	}
	second, err := store.SaveInfo("Bob", "alice@example.com")
	if err != nil {
		t.Fatalf("SaveInfo: %v", err)
	}

	if first.ID != original.ID || second.ID != original.ID {
		t.Fatalf("id changed: original=%q first=%q second=%q", original.ID, first.ID, second.ID)
	}

	loaded := NewFileStore(path).Load()
	if loaded.ID != original.ID {
		t.Errorf("persisted id changed to %q", loaded.ID)
	}
	if loaded.Name != "Bob" {
		t.Errorf("expected name Bob, got %q", loaded.Name)
	}
	if loaded.InfoUpdated == nil || !loaded.InfoUpdated.Equal(fixed) {
		t.Errorf("expected infoUpdated %v, got %v", fixed, loaded.InfoUpdated)
	}
}

func TestSaveInfo_PreservesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscriber.json")
	doc := `{"id":"abc","plan":"founder","name":"Old"}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewFileStore(path).SaveInfo("New", "new@example.com"); err != nil {
		t.Fatalf("SaveInfo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got["id"] != "abc" {
		t.Errorf("expected id abc, got %v", got["id"])
	}
	if got["plan"] != "founder" {
		t.Errorf("expected unknown field kept, got %v", got["plan"])
	}
	if got["name"] != "New" || got["email"] != "new@example.com" {
		t.Errorf("unexpected name/email %v/%v", got["name"], got["email"])
	}
}

func TestSaveInfo_CorruptFileUsesTemporaryID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscriber.json")
	if err := os.WriteFile(path, []byte("{oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewFileStore(path)

	temp := store.Load()
	saved, err := store.SaveInfo("Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("SaveInfo: %v", err)
	}
	if saved.ID != temp.ID {
		t.Errorf("expected the temporary id %q to be persisted, got %q", temp.ID, saved.ID)
	}
}

func TestSaveInfo_WriteFailure(t *testing.T) {
	// A regular file where the parent directory should be makes MkdirAll fail.
	parent := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(parent, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewFileStore(filepath.Join(parent, "subscriber.json"))

	if _, err := store.SaveInfo("Ada", "ada@example.com"); err == nil {
		t.Fatal("expected write error")
	}
}

func TestFileStore_ConcurrentLoadsAgree(t *testing.T) {
	// Unwritable location: every load falls back to the synthesized identity.
	parent := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(parent, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewFileStore(filepath.Join(parent, "subscriber.json"))

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = store.Load().ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected one id, got %v", ids)
		}
	}
}

func TestIDs(t *testing.T) {
	if id := NewUserID(); !validUUID(id) {
		t.Errorf("NewUserID() = %q, not a UUID", id)
	}
	if validUUID("not-a-uuid") {
		t.Error("expected invalid UUID to be rejected")
	}

	req := NewRequestID()
	if !strings.HasPrefix(req, "req_") || len(req) != 4+26 {
		t.Errorf("unexpected request id %q", req)
	}

	local := NewLocalID("rpl")
	if !strings.HasPrefix(local, "rpl_") {
		t.Errorf("unexpected local id %q", local)
	}
	id, err := ulid.Parse(strings.TrimPrefix(local, "rpl_"))
	if err != nil {
		t.Fatalf("parse local id: %v", err)
	}
	if time.Since(id.Timestamp()) > time.Minute {
		t.Errorf("local id timestamp too old: %v", id.Timestamp())
	}
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
