// ABOUTME: Tests for configuration loading
// ABOUTME: Tests defaults, file overrides and validation failures
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Container != "wav" || cfg.Encoding != "float32" || cfg.InputBackend != "malgo" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Mode != "mixed" {
		t.Errorf("expected default mode mixed, got %q", cfg.Mode)
	}
	if cfg.OutputDir == "" {
		t.Error("expected a default output dir")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output_dir: /tmp/rec
container: caf
encoding: int16
input_backend: portaudio
process_filters:
  - music
  - browser
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/tmp/rec" || cfg.Container != "caf" || cfg.Encoding != "int16" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.ProcessFilters) != 2 {
		t.Errorf("expected 2 process filters, got %d", len(cfg.ProcessFilters))
	}
}

func TestLoadRejectsInvalidContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("container: mp3\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for bad container")
	}
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: karaoke\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for bad mode")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
