package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xyz-social/newsletter/internal/paths"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has the shape local@domain.tld.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Identity is the locally persisted subscriber record.
type Identity struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Email       string     `json:"email,omitempty"`
	InfoUpdated *time.Time `json:"infoUpdated,omitempty"`
}

// Complete reports whether both name and email are known.
func (i Identity) Complete() bool {
	return i.Name != "" && i.Email != ""
}

// Repository gives callers access to the subscriber identity.
type Repository interface {
	// Load returns the stored identity, or a fresh one when none is readable.
	// It never fails.
	Load() Identity
	// SaveInfo stores name and email without touching the id.
	SaveInfo(name, email string) (Identity, error)
	// Path describes where the identity lives, for display.
	Path() string
}

// FileStore keeps the identity as a single JSON document. Concurrent writers
// are not coordinated; the last write wins.
type FileStore struct {
	path string
	now  func() time.Time

	mu    sync.Mutex
	fresh *Identity // identity synthesized when the file is absent or unreadable
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the identity file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the identity file. When the file does not exist a new identity
// is generated and persisted (best effort) so the id survives restarts. When
// the file exists but cannot be parsed it is left alone until the next
// explicit save, and a temporary identity is returned.
func (s *FileStore) Load() Identity {
	doc, err := s.readDocument()
	if err == nil {
		if ident, ok := identityFromDocument(doc); ok {
			return ident
		}
		err = fmt.Errorf("identity document has no id")
	}

	fresh := s.synthesized()

	if errors.Is(err, fs.ErrNotExist) {
		if werr := s.writeDocument(map[string]any{"id": fresh.ID}); werr != nil {
			log.Warn().Err(werr).Str("path", s.path).Msg("could not persist new identity")
		}
		return fresh
	}

	log.Warn().Err(err).Str("path", s.path).Msg("identity file unreadable; using a temporary identity")
	return fresh
}

// SaveInfo merges name, email and the update time into the stored document
// and rewrites it. Unknown fields in the document are preserved; the id is
// never changed once present.
func (s *FileStore) SaveInfo(name, email string) (Identity, error) {
	doc, err := s.readDocument()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("replacing unreadable identity file")
		}
		doc = map[string]any{}
	}

	id, _ := doc["id"].(string)
	if id == "" {
		id = s.synthesized().ID
	}

	updated := s.now().UTC()
	doc["id"] = id
	doc["name"] = name
	doc["email"] = email
	doc["infoUpdated"] = updated.Format(time.RFC3339Nano)

	ident := Identity{ID: id, Name: name, Email: email, InfoUpdated: &updated}
	if err := s.writeDocument(doc); err != nil {
		return ident, err
	}
	return ident, nil
}

// synthesized returns the per-store identity used when nothing is readable,
// so repeated loads within one process agree on the id.
func (s *FileStore) synthesized() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fresh == nil {
		s.fresh = &Identity{ID: NewUserID()}
	}
	return *s.fresh
}

// readDocument loads the raw JSON object from disk.
func (s *FileStore) readDocument() (map[string]any, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // G304 - path from per-user config directory
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse identity file: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse identity file: not a JSON object")
	}
	return doc, nil
}

// writeDocument replaces the identity file via write-then-rename.
func (s *FileStore) writeDocument(doc map[string]any) error {
	if err := paths.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("create identity directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace identity file: %w", err)
	}
	return nil
}

// identityFromDocument extracts the typed identity from a raw document.
func identityFromDocument(doc map[string]any) (Identity, bool) {
	id, _ := doc["id"].(string)
	if id == "" {
		return Identity{}, false
	}

	ident := Identity{ID: id}
	ident.Name, _ = doc["name"].(string)
	ident.Email, _ = doc["email"].(string)
	if raw, ok := doc["infoUpdated"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			ident.InfoUpdated = &t
		}
	}
	return ident, true
}
