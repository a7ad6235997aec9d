package cli

import (
	"fmt"
	"io"
	"sync"
)

// SpinnerFrames are the animation frames, one per tick.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner draws a one-line progress animation. It is purely cosmetic: when
// disabled every call is a no-op, so callers can tick unconditionally.
type Spinner struct {
	w       io.Writer
	text    string
	enabled bool

	mu     sync.Mutex
	frame  int
	active bool
}

// NewSpinner creates a spinner writing to w. Pass enabled=false for
// non-interactive output.
func NewSpinner(w io.Writer, text string, enabled bool) *Spinner {
	return &Spinner{w: w, text: text, enabled: enabled}
}

// Tick draws the next frame over the current line.
func (s *Spinner) Tick() {
	if s == nil || !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.w, "\r%s %s", SpinnerFrames[s.frame%len(SpinnerFrames)], s.text)
	s.frame++
	s.active = true
}

// Stop erases the spinner line if anything was drawn.
func (s *Spinner) Stop() {
	if s == nil || !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		_, _ = fmt.Fprint(s.w, "\r\x1b[2K")
		s.active = false
	}
}
