package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TASKBOARD_API_URL", "TASKBOARD_PROJECT", "TASKBOARD_LOG_LEVEL", "TASKBOARD_FIXUP_WORKERS", "TASKBOARD_HOME"} {
		t.Setenv(key, "")
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadFile(filepath.Join(dir, "nope.toml"), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.URL != DefaultAPIURL {
		t.Errorf("expected default url, got %q", cfg.API.URL)
	}
	if cfg.Board.DragDistance != DefaultDragDistance {
		t.Errorf("expected drag distance %v, got %v", DefaultDragDistance, cfg.Board.DragDistance)
	}
	if cfg.Board.FixupWorkers != DefaultFixupWorkers {
		t.Errorf("expected %d workers, got %d", DefaultFixupWorkers, cfg.Board.FixupWorkers)
	}
	if cfg.Log.Path != filepath.Join(dir, "taskboard.log") {
		t.Errorf("unexpected log path %q", cfg.Log.Path)
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil || timeout != 0 {
		t.Errorf("expected no timeout, got %v %v", timeout, err)
	}
}

func TestLoadFileParsesToml(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
url = "https://tasks.example.com/api/v1/"
timeout = "5s"

[board]
project = "p-123"
drag-distance = 3
fixup-workers = 2

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.URL != "https://tasks.example.com/api/v1" {
		t.Errorf("trailing slash should be trimmed, got %q", cfg.API.URL)
	}
	if cfg.Board.Project != "p-123" || cfg.Board.DragDistance != 3 || cfg.Board.FixupWorkers != 2 {
		t.Errorf("unexpected board config %+v", cfg.Board)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected level %q", cfg.Log.Level)
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil || timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v %v", timeout, err)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("TASKBOARD_API_URL", "http://127.0.0.1:9999/api/v1/")
	t.Setenv("TASKBOARD_PROJECT", "from-env")
	t.Setenv("TASKBOARD_FIXUP_WORKERS", "3")
	t.Setenv("TASKBOARD_HOME", filepath.Join(dir, "home"))

	cfg, err := LoadFile(filepath.Join(dir, "missing.toml"), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.URL != "http://127.0.0.1:9999/api/v1" {
		t.Errorf("unexpected url %q", cfg.API.URL)
	}
	if cfg.Board.Project != "from-env" || cfg.Board.FixupWorkers != 3 {
		t.Errorf("unexpected board config %+v", cfg.Board)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "home", "taskboard.db") {
		t.Errorf("unexpected db path %q", cfg.DatabasePath())
	}
}

func TestInvalidValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[api]\ntimeout = \"soon\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path, dir); err == nil {
		t.Fatal("expected bad timeout to fail")
	}

	t.Setenv("TASKBOARD_FIXUP_WORKERS", "zero")
	if _, err := LoadFile(filepath.Join(dir, "missing.toml"), dir); err == nil {
		t.Fatal("expected bad worker count to fail")
	}
}
