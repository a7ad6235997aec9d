package markdown

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

const (
	codeIndent = "    "
	quoteBar   = "│ "
	ruleWidth  = 40
)

// walker turns a goldmark AST into styled lines.
type walker struct {
	src []byte
	st  *styles
}

// blocks renders the block children of parent. Unless tight, siblings are
// separated by an empty line.
func (w *walker) blocks(parent ast.Node, base lipgloss.Style, tight bool) []string {
	var out []string
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		lines := w.block(c, base)
		if len(lines) == 0 {
			continue
		}
		if len(out) > 0 && !tight {
			out = append(out, "")
		}
		out = append(out, lines...)
	}
	return out
}

func (w *walker) block(n ast.Node, base lipgloss.Style) []string {
	switch v := n.(type) {
	case *ast.Heading:
		st := w.st.heading.Inherit(base)
		lines := w.inlineLines(v, st)
		lines[0] = paint(st, strings.Repeat("#", v.Level)+" ") + lines[0]
		return lines

	case *ast.Paragraph, *ast.TextBlock:
		return w.inlineLines(n, base.Inherit(w.st.paragraph))

	case *ast.Blockquote:
		qs := base.Inherit(w.st.quote)
		inner := w.blocks(v, qs, false)
		bar := paint(w.st.quote, quoteBar)
		for i, line := range inner {
			inner[i] = strings.TrimRight(bar+line, " ")
		}
		return inner

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		st := w.st.code.Inherit(base)
		var out []string
		for _, line := range w.rawLines(n) {
			out = append(out, codeIndent+paint(st, line))
		}
		return out

	case *ast.HTMLBlock:
		lines := w.rawLines(v)
		if v.HasClosure() {
			lines = append(lines, strings.TrimRight(string(v.ClosureLine.Value(w.src)), "\r\n"))
		}
		return lines

	case *ast.ThematicBreak:
		return []string{paint(w.st.rule, strings.Repeat("─", ruleWidth))}

	case *ast.List:
		return w.list(v, base, false)

	case *east.Table:
		return w.table(v, base)

	default:
		return w.blocks(n, base, false)
	}
}

// list renders l with its markers. Ordered lists are numbered from 1
// whatever the source says; inside an unordered list every item, numbered
// or not, gets a bullet.
func (w *walker) list(l *ast.List, base lipgloss.Style, bullets bool) []string {
	var out []string
	num := 1
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var marker string
		switch {
		case l.IsOrdered() && !bullets:
			marker = strconv.Itoa(num) + "."
			num++
		case l.IsOrdered():
			marker = "*"
		default:
			marker = string(l.Marker)
		}

		if len(out) > 0 && !l.IsTight {
			out = append(out, "")
		}

		body := w.listItem(item, base, l.IsTight, bullets || !l.IsOrdered())
		head := paint(w.st.marker, marker)
		if len(body) == 0 {
			out = append(out, head)
			continue
		}

		pad := strings.Repeat(" ", len(marker)+1)
		for i, line := range body {
			switch {
			case i == 0:
				out = append(out, head+" "+line)
			case line == "":
				out = append(out, "")
			default:
				out = append(out, pad+line)
			}
		}
	}
	return out
}

func (w *walker) listItem(item ast.Node, base lipgloss.Style, tight, bullets bool) []string {
	var out []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		var lines []string
		if sub, ok := c.(*ast.List); ok {
			lines = w.list(sub, base, bullets)
		} else {
			lines = w.block(c, base)
		}
		if len(lines) == 0 {
			continue
		}
		if len(out) > 0 && !tight {
			out = append(out, "")
		}
		out = append(out, lines...)
	}
	return out
}

func (w *walker) table(t *east.Table, base lipgloss.Style) []string {
	var (
		rows   [][]string
		widths []int
	)
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		st := base.Inherit(w.st.paragraph)
		if _, header := row.(*east.TableHeader); header {
			st = w.st.strong.Inherit(st)
		}

		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			s := strings.ReplaceAll(w.inline(cell, st), "\n", " ")
			i := len(cells)
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(s))
			cells = append(cells, s)
		}
		rows = append(rows, cells)
	}

	sep := paint(w.st.rule, " │ ")
	var out []string
	for r, cells := range rows {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		out = append(out, strings.TrimRight(strings.Join(parts, sep), " "))

		if r == 0 {
			dashes := make([]string, len(widths))
			for i, wd := range widths {
				dashes[i] = strings.Repeat("─", wd)
			}
			out = append(out, paint(w.st.rule, strings.Join(dashes, "─┼─")))
		}
	}
	return out
}

// inlineLines renders the inline children of n and splits on line breaks.
func (w *walker) inlineLines(n ast.Node, st lipgloss.Style) []string {
	s := strings.TrimRight(w.inline(n, st), "\n")
	return strings.Split(s, "\n")
}

func (w *walker) inline(n ast.Node, st lipgloss.Style) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.WriteString(paint(st, string(v.Segment.Value(w.src))))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}

		case *ast.String:
			b.WriteString(paint(st, string(v.Value)))

		case *ast.CodeSpan:
			b.WriteString(paint(w.st.code.Inherit(st), w.plain(v)))

		case *ast.Emphasis:
			if v.Level >= 2 {
				b.WriteString(w.inline(v, w.st.strong.Inherit(st)))
			} else {
				b.WriteString(w.inline(v, w.st.emphasis.Inherit(st)))
			}

		case *east.Strikethrough:
			b.WriteString(w.inline(v, w.st.strike.Inherit(st)))

		case *ast.Link:
			href := string(v.Destination)
			b.WriteString(w.inline(v, w.st.link.Inherit(st)))
			if href != "" && w.plain(v) != href {
				b.WriteString(paint(st, " "))
				b.WriteString(paint(w.st.href.Inherit(st), "("+href+")"))
			}

		case *ast.AutoLink:
			b.WriteString(paint(w.st.href.Inherit(st), string(v.Label(w.src))))

		case *ast.Image:
			alt := w.plain(v)
			if alt == "" {
				alt = "untitled"
			}
			b.WriteString(paint(w.st.link.Inherit(st), "[Image: "+alt+"]"))
			b.WriteString(paint(w.st.href.Inherit(st), " ("+string(v.Destination)+")"))

		case *ast.RawHTML:
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				b.WriteString(paint(st, string(seg.Value(w.src))))
			}

		case *east.TaskCheckBox:
			box := "[ ] "
			if v.IsChecked {
				box = "[x] "
			}
			b.WriteString(paint(w.st.marker, box))

		default:
			b.WriteString(w.inline(c, st))
		}
	}
	return b.String()
}

// plain returns the unstyled text below n.
func (w *walker) plain(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(w.src))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// rawLines returns the source lines of a raw block without line endings.
func (w *walker) rawLines(n ast.Node) []string {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(w.src)), "\r\n"))
	}
	return out
}
