package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hazyhaar/crosswalk/pkg/lookup"
)

// ErrDatasetNotFound is returned for an unknown dataset ID.
var ErrDatasetNotFound = errors.New("dataset not found")

// Registry holds all loaded datasets and serves resolve queries.
type Registry struct {
	mu          sync.RWMutex
	datasets    map[string]*Dataset
	datasetsDir string
}

// NewRegistry creates a new empty registry for the given directory.
func NewRegistry(datasetsDir string) *Registry {
	return &Registry{
		datasets:    make(map[string]*Dataset),
		datasetsDir: datasetsDir,
	}
}

// Load scans the datasets directory and loads every dataset. On error the
// previously loaded datasets stay in place.
func (r *Registry) Load() error {
	dirs, err := os.ReadDir(r.datasetsDir)
	if err != nil {
		return fmt.Errorf("read datasets dir %s: %w", r.datasetsDir, err)
	}

	loaded := make(map[string]*Dataset)
	for _, de := range dirs {
		if !de.IsDir() {
			continue
		}
		dir := filepath.Join(r.datasetsDir, de.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}
		d, err := LoadDataset(dir)
		if err != nil {
			return fmt.Errorf("load dataset %s: %w", de.Name(), err)
		}
		if _, dup := loaded[d.Manifest.ID]; dup {
			return fmt.Errorf("load dataset %s: duplicate id %q", de.Name(), d.Manifest.ID)
		}
		if n := len(d.Entries) - d.Len(); n > 0 {
			slog.Warn("redundant reference entries", "dataset", d.Manifest.ID, "duplicates", n)
		}
		loaded[d.Manifest.ID] = d
	}

	r.mu.Lock()
	r.datasets = loaded
	r.mu.Unlock()
	return nil
}

// Reload reloads all datasets from disk (hot reload).
func (r *Registry) Reload() error {
	return r.Load()
}

// Get returns the dataset with the given ID.
func (r *Registry) Get(id string) (*Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, id)
	}
	return d, nil
}

// ResolveResult is the outcome of resolving one record.
type ResolveResult struct {
	Dataset     string             `json:"dataset"`
	Combination lookup.Combination `json:"combination,omitempty"`
	Entry       *lookup.Entry      `json:"entry,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Resolve matches record against the named dataset.
func (r *Registry) Resolve(id string, record map[string]any) (*ResolveResult, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	m, err := d.Resolve(record)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{Dataset: id, Combination: m.Combination, Entry: m.Entry}, nil
}

// ResolveBatch resolves each record independently. Lookup failures are
// reported per record; only an unknown dataset fails the whole batch.
func (r *Registry) ResolveBatch(id string, records []map[string]any) ([]*ResolveResult, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	results := make([]*ResolveResult, len(records))
	for i, rec := range records {
		res := &ResolveResult{Dataset: id}
		if m, err := d.Resolve(rec); err != nil {
			res.Error = err.Error()
		} else {
			res.Combination, res.Entry = m.Combination, m.Entry
		}
		results[i] = res
	}
	return results, nil
}

// Info is the public metadata for a loaded dataset.
type Info struct {
	ID            string               `json:"id"`
	Version       string               `json:"version"`
	Description   string               `json:"description,omitempty"`
	Source        string               `json:"source,omitempty"`
	License       string               `json:"license,omitempty"`
	Entries       int                  `json:"entries"`
	CaseSensitive bool                 `json:"case_sensitive"`
	Fields        []string             `json:"fields,omitempty"`
	Combinations  []lookup.Combination `json:"combinations,omitempty"`
}

func info(d *Dataset) Info {
	return Info{
		ID:            d.Manifest.ID,
		Version:       d.Manifest.Version,
		Description:   d.Manifest.Description,
		Source:        d.Manifest.Source,
		License:       d.Manifest.License,
		Entries:       d.Len(),
		CaseSensitive: d.Manifest.Match.CaseSensitive,
		Fields:        d.Manifest.Match.FieldsFilter,
	}
}

// Describe returns metadata for one dataset, including its combinations.
func (r *Registry) Describe(id string) (Info, error) {
	d, err := r.Get(id)
	if err != nil {
		return Info{}, err
	}
	in := info(d)
	in.Combinations = d.Combinations()
	return in, nil
}

// ListDatasets returns metadata for all loaded datasets, sorted by ID.
func (r *Registry) ListDatasets() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.datasets))
	for _, d := range r.datasets {
		infos = append(infos, info(d))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// DatasetCount returns the number of loaded datasets.
func (r *Registry) DatasetCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.datasets)
}

// TotalEntries returns the total number of indexed entries across datasets.
func (r *Registry) TotalEntries() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, d := range r.datasets {
		total += d.Len()
	}
	return total
}
