package cli

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	bannerTitle    = "Founder's Terminal"
	bannerSubtitle = "Newsletter by XYZ"
)

// Banner returns the welcome box printed before every command.
func Banner(t *Theme) string {
	body := t.Title.Render(bannerTitle) + "\n\n" + t.Muted.Render(bannerSubtitle)

	box := t.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(1, 3).
		Margin(1, 1)

	return box.Render(body) + "\n"
}
