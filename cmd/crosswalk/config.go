package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type config struct {
	Addr        string `yaml:"addr" toml:"addr"`
	DatasetsDir string `yaml:"datasets_dir" toml:"datasets_dir"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
}

func defaultConfig() config {
	return config{
		Addr:        ":8420",
		DatasetsDir: "datasets",
		LogLevel:    "info",
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
// Files ending in .toml are parsed as TOML, anything else as YAML.
func loadConfig(path string) (config, bool, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, true, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, true, nil
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
