package cli

import (
	"math/rand"
	"time"
)

var (
	// Random source for hint rotation (not security-sensitive, just UI hint selection).
	hintRandom = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // G404: non-security random for hint rotation
)

// Hint returns a contextual hint for the given command.
// Returns empty string if hints should be suppressed (quiet/JSON mode).
func Hint(command string, quiet, jsonMode bool) string {
	if quiet || jsonMode {
		return ""
	}

	hints, ok := commandHints[command]
	if !ok || len(hints) == 0 {
		return ""
	}

	idx := hintRandom.Intn(len(hints))
	return "  " + hints[idx] + "\n"
}

// commandHints maps command names to possible contextual hints.
var commandHints = map[string][]string{
	"list": {
		"Tip: Read an issue with 'newsletter read <number>'",
		"Tip: Jump to the newest issue with 'newsletter latest'",
	},
	"list.empty": {
		"Tip: Start a new issue with 'newsletter new'",
	},
	"new": {
		"Tip: Preview it with 'newsletter latest'",
		"Tip: See all issues with 'newsletter list'",
	},
	"read": {
		"Tip: Reply to the founder with 'newsletter chat'",
		"Tip: See all issues with 'newsletter list'",
	},
	"inbox": {
		"Tip: Continue the conversation with 'newsletter chat'",
		"Tip: Show the local history with 'newsletter inbox --local'",
	},
	"inbox.empty": {
		"Tip: Say hello with 'newsletter chat'",
	},
	"chat": {
		"Tip: Type /help for commands, or press Enter on an empty line to leave",
		"Tip: Use 'newsletter chat --socket' for instant replies",
	},
	"whoami": {
		"Tip: Change your name inside chat with '/setname <name>'",
	},
}
