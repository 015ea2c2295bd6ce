package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, found, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if cfg != defaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("addr: \":9000\"\ndatasets_dir: /srv/ref\n"), 0o644)

	cfg, found, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !found {
		t.Error("found = false")
	}
	if cfg.Addr != ":9000" || cfg.DatasetsDir != "/srv/ref" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("addr = \":9100\"\nlog_level = \"debug\"\n"), 0o644)

	cfg, _, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9100" || cfg.DatasetsDir != "datasets" {
		t.Errorf("cfg = %+v", cfg)
	}
	l, err := cfg.level()
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if l != slog.LevelDebug {
		t.Errorf("level = %v, want debug", l)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("addr: [unclosed\n"), 0o644)

	if _, _, err := loadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfigLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"info", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := config{LogLevel: tt.in}.level()
		if (err != nil) != tt.wantErr {
			t.Errorf("level(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
