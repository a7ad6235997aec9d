package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// homeDirName is the per-user directory holding identity, history and config.
	homeDirName = ".xyz-newsletter"

	// HomeEnv overrides the per-user directory (tests, sandboxes, multiple profiles).
	HomeEnv = "NEWSLETTER_HOME"
)

// Home returns the per-user newsletter directory.
//
// Resolution order:
// 1. NEWSLETTER_HOME if set
// 2. ~/.xyz-newsletter
// 3. ./.xyz-newsletter when no home directory can be determined
func Home() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}

	userHome, err := os.UserHomeDir()
	if err != nil || userHome == "" {
		return homeDirName
	}
	return filepath.Join(userHome, homeDirName)
}

// IdentityFile returns the path of the subscriber identity document.
func IdentityFile(home string) string {
	return filepath.Join(home, "subscriber.json")
}

// HistoryFile returns the path of the local SQLite message log.
func HistoryFile(home string) string {
	return filepath.Join(home, "history.db")
}

// ConfigFile returns the path of the optional TOML configuration file.
func ConfigFile(home string) string {
	return filepath.Join(home, "config.toml")
}

// IssuesDir returns the default directory holding newsletter issues.
func IssuesDir(home string) string {
	return filepath.Join(home, "issues")
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("empty directory path")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether path exists (file or directory).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
