// Package dataset loads reference datasets from disk and serves lookups over
// them.
//
// A dataset is a directory holding a manifest.yaml and a data file. The data
// file lists reference entries in JSON, YAML, gob or SQLite form.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/crosswalk/pkg/lookup"
)

// Dataset is one loaded reference dataset with its compiled index.
type Dataset struct {
	Manifest *Manifest     `json:"manifest"`
	Entries  []lookup.Entry `json:"-"`
	index    *lookup.Index
}

// LoadDataset reads dir/manifest.yaml, loads the entries and builds the index.
// A data.gob next to the manifest takes priority over the declared data file.
func LoadDataset(dir string) (*Dataset, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, err
	}

	path, format := filepath.Join(dir, manifest.DataFile), manifest.Format
	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		path, format = gobPath, FormatGob
	}

	entries, err := ReadEntries(path, format)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", manifest.ID, err)
	}
	return New(manifest, entries)
}

// New validates entries and compiles them into a Dataset.
func New(manifest *Manifest, entries []lookup.Entry) (*Dataset, error) {
	if err := validateEntries(entries); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", manifest.ID, err)
	}
	idx, err := lookup.New(entries, manifest.Match)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", manifest.ID, err)
	}
	return &Dataset{Manifest: manifest, Entries: entries, index: idx}, nil
}

// ReadEntries decodes a data file in the given format.
func ReadEntries(path, format string) ([]lookup.Entry, error) {
	switch format {
	case FormatGob:
		return loadGob(path)
	case FormatSQLite:
		return loadSQLite(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var entries []lookup.Entry
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &entries)
	case FormatJSON:
		err = json.Unmarshal(data, &entries)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s data file %s: %w", format, path, err)
	}
	return entries, nil
}

func validateEntries(entries []lookup.Entry) error {
	for i := range entries {
		e := &entries[i]
		if e.Source == nil {
			return fmt.Errorf("entry %d: missing source", i)
		}
		if e.HasTarget() && e.HasTargets() {
			return fmt.Errorf("entry %d: both target and targets set", i)
		}
	}
	return nil
}

// Resolve matches record against the dataset.
func (d *Dataset) Resolve(record map[string]any) (*lookup.Match, error) {
	return d.index.Match(record)
}

// Combinations returns the field combinations records are matched by.
func (d *Dataset) Combinations() []lookup.Combination {
	return d.index.Combinations()
}

// Len returns the number of distinct entries in the index.
func (d *Dataset) Len() int {
	return d.index.Len()
}
