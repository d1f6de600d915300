package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.GraceMinutes != 10 {
		t.Errorf("grace_minutes = %d, want 10", cfg.GraceMinutes)
	}
	if cfg.Autocancel.Cron != "*/3 * * * *" {
		t.Errorf("autocancel.cron = %q, want */3 * * * *", cfg.Autocancel.Cron)
	}
	if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path == "" {
		t.Fatal("expected a default sqlite path")
	}
}

func TestLoadConfig_RelativeSQLitePath(t *testing.T) {
	path := writeConfigFile(t, "storage:\n  sqlite:\n    path: rooms.db\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !strings.HasSuffix(cfg.Storage.SQLite.Path, "/rooms.db") {
		t.Errorf("relative path was not anchored to the instance folder: %q", cfg.Storage.SQLite.Path)
	}
}

func TestLoadConfig_MemorySQLitePath(t *testing.T) {
	path := writeConfigFile(t, "storage:\n  sqlite:\n    path: ':memory:'\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.SQLite.Path != ":memory:" {
		t.Errorf("in-memory path was rewritten to %q", cfg.Storage.SQLite.Path)
	}
}

func TestLoadConfig_EmptySQLitePath(t *testing.T) {
	path := writeConfigFile(t, "storage:\n  sqlite:\n    path: ''\n")

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for an empty sqlite path")
	}
}
