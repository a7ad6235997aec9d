package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the lipgloss styles used for user-facing output. Styles are
// bound to a renderer, so colors are dropped automatically when the output
// is not a terminal.
type Theme struct {
	r *lipgloss.Renderer

	Title   lipgloss.Style
	Dim     lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Name    lipgloss.Style
	Self    lipgloss.Style
	Reply   lipgloss.Style
	Check   lipgloss.Style
	Border  lipgloss.Color
}

// NewTheme creates a theme whose color profile is detected from w.
func NewTheme(w io.Writer) *Theme {
	return newTheme(lipgloss.NewRenderer(w))
}

// NewPlainTheme creates a theme that never emits escape sequences.
func NewPlainTheme() *Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return newTheme(r)
}

func newTheme(r *lipgloss.Renderer) *Theme {
	return &Theme{
		r:       r,
		Title:   r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Dim:     r.NewStyle().Faint(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("2")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("1")),
		Name:    r.NewStyle().Foreground(lipgloss.Color("7")),
		Self:    r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		Reply:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Check:   r.NewStyle().Foreground(lipgloss.Color("3")),
		Border:  lipgloss.Color("6"),
	}
}

// Renderer returns the lipgloss renderer the theme is bound to.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.r
}

// Paint applies st to s line by line.
func (t *Theme) Paint(st lipgloss.Style, s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = st.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
