package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/crosswalk/pkg/lookup"
)

// Data file formats.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatGob    = "gob"
	FormatSQLite = "sqlite"
)

// Manifest describes a reference dataset: where it comes from, where its
// entries live, and how records are matched against them.
type Manifest struct {
	ID          string         `yaml:"id" json:"id"`
	Version     string         `yaml:"version" json:"version"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Source      string         `yaml:"source" json:"source,omitempty"`
	License     string         `yaml:"license" json:"license,omitempty"`
	DataFile    string         `yaml:"data_file" json:"data_file"`
	Format      string         `yaml:"format" json:"format"`
	Match       lookup.Options `yaml:"match" json:"match"`
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.DataFile == "" {
		m.DataFile = "data.json"
	}
	if m.Format == "" {
		m.Format = formatFromExt(m.DataFile)
	}
	switch m.Format {
	case FormatJSON, FormatYAML, FormatGob, FormatSQLite:
	default:
		return nil, fmt.Errorf("manifest %s: unknown format %q", path, m.Format)
	}
	return &m, nil
}

// WriteManifest writes m as YAML to dir/manifest.yaml.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}

func formatFromExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".gob":
		return FormatGob
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}
