package dataset

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/hazyhaar/crosswalk/pkg/lookup"
)

// gobEntry keeps an explicit target flag: gob drops empty maps, which would
// turn `target: {}` into a missing target.
type gobEntry struct {
	Source    map[string]any
	Target    map[string]any
	HasTarget bool
	Targets   any
}

// loadGob deserializes entries from a gob-encoded file.
func loadGob(path string) ([]lookup.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var raw []gobEntry
	if err := gob.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}

	entries := make([]lookup.Entry, len(raw))
	for i, r := range raw {
		entries[i] = lookup.Entry{Source: r.Source, Target: r.Target, Targets: r.Targets}
		if entries[i].Source == nil {
			entries[i].Source = map[string]any{}
		}
		if r.HasTarget && r.Target == nil {
			entries[i].Target = map[string]any{}
		}
	}
	return entries, nil
}

// SaveGob serializes entries to a gob-encoded file at path.
func SaveGob(entries []lookup.Entry, path string) error {
	raw := make([]gobEntry, len(entries))
	for i, e := range entries {
		raw[i] = gobEntry{Source: e.Source, Target: e.Target, HasTarget: e.HasTarget(), Targets: e.Targets}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(raw); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
