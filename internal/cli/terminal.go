package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"
)

// GetTerminalWidth returns the width of the terminal in columns.
// It tries the following methods in order:
// 1. term.GetSize on stdout
// 2. COLUMNS environment variable
// 3. Default to 80 columns.
func GetTerminalWidth() int {
	if width := getWidthFromTerm(); width > 0 {
		return width
	}

	if width := getWidthFromEnv(); width > 0 {
		return width
	}

	return 80
}

func getWidthFromTerm() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // G115 - fd fits in int
	if err != nil {
		return 0
	}
	return width
}

// getWidthFromEnv reads the COLUMNS environment variable.
func getWidthFromEnv() int {
	if colStr := os.Getenv("COLUMNS"); colStr != "" {
		if width, err := strconv.Atoi(colStr); err == nil && width > 0 {
			return width
		}
	}
	return 0
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115 - fd fits in int
}

// ClearScreen clears the terminal and moves the cursor home.
func ClearScreen(w io.Writer) {
	_, _ = fmt.Fprint(w, "\x1b[2J\x1b[H")
}

// truncate shortens s to maxLen runes, adding "..." if needed.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen || maxLen < 4 {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
