package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHome_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	if got := Home(); got != dir {
		t.Errorf("expected %s, got %s", dir, got)
	}
}

func TestHome_DefaultsUnderUserHome(t *testing.T) {
	t.Setenv(HomeEnv, "")
	userHome := t.TempDir()
	t.Setenv("HOME", userHome)

	expected := filepath.Join(userHome, ".xyz-newsletter")
	if got := Home(); got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestFileLayout(t *testing.T) {
	home := "/tmp/nl-home"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"identity", IdentityFile(home), "/tmp/nl-home/subscriber.json"},
		{"history", HistoryFile(home), "/tmp/nl-home/history.db"},
		{"config", ConfigFile(home), "/tmp/nl-home/config.toml"},
		{"issues", IssuesDir(home), "/tmp/nl-home/issues"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	for i := 0; i < 2; i++ {
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir (pass %d) failed: %v", i+1, err)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory", dir)
	}
}

func TestEnsureDir_Empty(t *testing.T) {
	if err := EnsureDir(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if !Exists(dir) {
		t.Errorf("expected %s to exist", dir)
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("expected missing path to not exist")
	}
}
