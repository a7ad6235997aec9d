// Package issues manages the numbered markdown issue files of the newsletter.
//
// Issues live as <n>.md in a single directory. Numbers are positive
// integers; gaps are allowed and a new issue always takes max+1.
package issues

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xyz-social/newsletter/internal/paths"
)

// ErrNotFound is returned when an issue file does not exist.
var ErrNotFound = errors.New("issue not found")

// maxCreateAttempts bounds how many numbers Create tries when another writer
// keeps taking the slot it picked.
const maxCreateAttempts = 100

// Issue describes one issue file.
type Issue struct {
	Name   string `json:"name"`   // file name, e.g. "12.md"
	Number int    `json:"number"` // 0 when the name is not numeric
	Title  string `json:"title"`
}

// Store reads and writes issues in a directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir. The directory is not touched until
// EnsureDir or Create is called.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the issues directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the issues directory if needed.
func (s *Store) EnsureDir() error {
	if err := paths.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("create issues directory: %w", err)
	}
	return nil
}

// List returns the names of all markdown files, sorted descending by plain
// string comparison. "9.md" therefore sorts above "10.md".
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read issues directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Issues returns List with each file's number and title.
func (s *Store) Issues() ([]Issue, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	out := make([]Issue, 0, len(names))
	for _, name := range names {
		content, err := s.readFile(name)
		if err != nil {
			return nil, err
		}
		n, _ := numberFromName(name)
		out = append(out, Issue{Name: name, Number: n, Title: Title(content)})
	}
	return out, nil
}

// Read returns the content of issue number. A missing file yields ErrNotFound.
func (s *Store) Read(number int) (string, error) {
	if number <= 0 {
		return "", fmt.Errorf("issue %d: %w", number, ErrNotFound)
	}
	return s.readFile(fileName(number))
}

// Latest returns the first issue in List order along with its content.
// ErrNotFound means the directory holds no issues.
func (s *Store) Latest() (Issue, string, error) {
	names, err := s.List()
	if err != nil {
		return Issue{}, "", err
	}
	if len(names) == 0 {
		return Issue{}, "", ErrNotFound
	}

	content, err := s.readFile(names[0])
	if err != nil {
		return Issue{}, "", err
	}
	n, _ := numberFromName(names[0])
	return Issue{Name: names[0], Number: n, Title: Title(content)}, content, nil
}

// Create writes a templated issue numbered one above the highest existing
// number and returns that number. An existing file is never overwritten: if
// the slot is taken between listing and writing, the next number is tried.
func (s *Store) Create() (int, error) {
	if err := s.EnsureDir(); err != nil {
		return 0, err
	}

	next, err := s.nextNumber()
	if err != nil {
		return 0, err
	}

	date := s.now().UTC().Format(time.DateOnly)
	for range maxCreateAttempts {
		path := filepath.Join(s.dir, fileName(next))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // G302 - issues are meant to be read and edited
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				next++
				continue
			}
			return 0, fmt.Errorf("create issue %d: %w", next, err)
		}

		if _, err := f.WriteString(Template(next, date)); err != nil {
			_ = f.Close()
			return 0, fmt.Errorf("write issue %d: %w", next, err)
		}
		if err := f.Close(); err != nil {
			return 0, fmt.Errorf("close issue %d: %w", next, err)
		}
		return next, nil
	}
	return 0, fmt.Errorf("create issue: no free number after %d attempts", maxCreateAttempts)
}

// Template returns the skeleton written for a new issue.
func Template(number int, date string) string {
	return fmt.Sprintf(`# Issue %d

## Introduction

## Main Content

## Conclusion

> Published on %s
`, number, date)
}

// Title returns the first line of content with a leading "# " removed.
func Title(content string) string {
	first, _, _ := strings.Cut(content, "\n")
	first = strings.TrimSuffix(first, "\r")
	return strings.Replace(first, "# ", "", 1)
}

func (s *Store) nextNumber() (int, error) {
	names, err := s.List()
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, name := range names {
		if n, ok := numberFromName(name); ok && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

func (s *Store) readFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name)) //nolint:gosec // G304 - name comes from the issues directory listing
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func fileName(number int) string {
	return strconv.Itoa(number) + ".md"
}

// numberFromName parses "<n>.md"; ok is false for non-numeric names.
func numberFromName(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(name, ".md"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
