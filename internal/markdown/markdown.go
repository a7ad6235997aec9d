// Package markdown renders issue markdown as ANSI terminal text.
//
// Parsing is done by goldmark with the GitHub-flavored extensions; the
// resulting AST is walked and written line by line with lipgloss styles.
// Rendering has no I/O and the same input always produces the same output
// for a given color profile.
package markdown

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Renderer converts markdown to terminal text. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	styles styles
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	renderer *lipgloss.Renderer
}

// WithRenderer makes the Renderer use r's color profile, usually one bound to
// the output terminal.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(c *config) { c.renderer = r }
}

// WithProfile fixes the color profile. termenv.Ascii yields plain text.
func WithProfile(p termenv.Profile) Option {
	return func(c *config) {
		r := lipgloss.NewRenderer(io.Discard)
		r.SetColorProfile(p)
		c.renderer = r
	}
}

// New creates a Renderer. Without options it always emits 16-color ANSI.
func New(opts ...Option) *Renderer {
	cfg := config{}
	WithProfile(termenv.ANSI)(&cfg)
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		styles: newStyles(cfg.renderer),
	}
}

// Render converts src to styled terminal text. Blocks are separated by a
// blank line and the result ends with a newline unless src is blank.
func (r *Renderer) Render(src string) string {
	source := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(source))

	w := &walker{src: source, st: &r.styles}
	lines := w.blocks(doc, r.styles.base, false)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// styles is the fixed palette: cyan bold headings, white paragraphs, gray
// quotes and code, blue links, magenta list markers.
type styles struct {
	base      lipgloss.Style
	heading   lipgloss.Style
	paragraph lipgloss.Style
	strong    lipgloss.Style
	emphasis  lipgloss.Style
	strike    lipgloss.Style
	quote     lipgloss.Style
	code      lipgloss.Style
	link      lipgloss.Style
	href      lipgloss.Style
	marker    lipgloss.Style
	rule      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	gray := lipgloss.Color("8")
	blue := lipgloss.Color("4")

	return styles{
		base:      r.NewStyle(),
		heading:   r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		paragraph: r.NewStyle().Foreground(lipgloss.Color("7")),
		strong:    r.NewStyle().Bold(true),
		emphasis:  r.NewStyle().Italic(true),
		strike:    r.NewStyle().Strikethrough(true),
		quote:     r.NewStyle().Foreground(gray).Italic(true),
		code:      r.NewStyle().Foreground(gray),
		link:      r.NewStyle().Foreground(blue),
		href:      r.NewStyle().Foreground(blue).Underline(true),
		marker:    r.NewStyle().Foreground(lipgloss.Color("5")),
		rule:      r.NewStyle().Foreground(gray),
	}
}

// paint styles s one line at a time so multi-line text is never padded to a
// common width.
func paint(st lipgloss.Style, s string) string {
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "\n") {
		return st.Render(s)
	}

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = st.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
