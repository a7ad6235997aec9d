package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/xyz-social/newsletter/internal/issues"
)

// CheckMark follows every delivered chat line.
const CheckMark = "✓"

// Clock formats t as the local wall-clock time shown in chat lines.
func Clock(t time.Time) string {
	return t.Local().Format(time.TimeOnly)
}

// Relative formats t relative to now, e.g. "3 minutes ago".
func Relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// ChatLine formats "[stamp] name: content ✓". reply selects the reply
// coloring for the content.
func ChatLine(t *Theme, stamp, name, content string, reply bool) string {
	body := t.Name
	if reply {
		body = t.Reply
	}
	return t.Dim.Render("["+stamp+"] ") +
		t.Name.Render(name+": ") +
		t.Paint(body, content) + " " +
		t.Check.Render(CheckMark)
}

// FormatIssueList formats the issue list. Titles are cut to the terminal
// width.
func FormatIssueList(t *Theme, list []issues.Issue) string {
	var out strings.Builder

	if len(list) == 0 {
		out.WriteString(t.Warn.Render("No issues found.") + "\n")
		return out.String()
	}

	width := GetTerminalWidth()
	out.WriteString("\n" + t.Title.Render("Available Issues:") + "\n\n")
	for _, is := range list {
		label := strings.TrimSuffix(is.Name, ".md")
		prefix := fmt.Sprintf("[%s] ", label)
		title := truncate(is.Title, width-len(prefix))
		out.WriteString(t.Muted.Render(prefix) + t.r.NewStyle().Bold(true).Render(title) + "\n")
	}
	return out.String()
}
