package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.CompactionThreshold != DefaultCompactionThreshold {
		t.Errorf("CompactionThreshold = %d, want %d", cfg.CompactionThreshold, DefaultCompactionThreshold)
	}
}

func TestLoad_MissingConfigFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.yml"), "")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing config file", err)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want default %q", cfg.DataDir, DefaultDataDir)
	}
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "data_dir: /tmp/mykvs\ncompaction_threshold: 2048\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/tmp/mykvs" {
		t.Errorf("DataDir = %q, want /tmp/mykvs", cfg.DataDir)
	}
	if cfg.CompactionThreshold != 2048 {
		t.Errorf("CompactionThreshold = %d, want 2048", cfg.CompactionThreshold)
	}
}

func TestLoad_DataDirOverrideWinsOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "data_dir: /tmp/mykvs\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, "/explicit/path")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/explicit/path" {
		t.Errorf("DataDir = %q, want /explicit/path", cfg.DataDir)
	}
}

func TestLoad_MalformedConfigFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("not: valid: yaml: ["), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path, ""); err == nil {
		t.Fatal("Load() expected error for malformed config file, got nil")
	}
}
