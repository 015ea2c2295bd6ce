// Package importer builds reference datasets from tabular mapping files.
//
// A mapping CSV has one header row. Columns named "target.<field>" feed the
// entry target; every other column, optionally prefixed "source.", feeds the
// source. Empty cells are omitted, so a row only constrains the fields it
// fills.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/hazyhaar/crosswalk/pkg/dataset"
	"github.com/hazyhaar/crosswalk/pkg/lookup"
)

const (
	sourcePrefix = "source."
	targetPrefix = "target."
)

// Options describe the dataset produced by an import.
type Options struct {
	ID          string
	Version     string
	Description string
	License     string
	Comma       rune
	// Encoding names the CSV charset (WHATWG label such as "windows-1252"
	// or "latin1"). Empty means UTF-8.
	Encoding    string
	Match       lookup.Options
}

// ImportCSV reads a mapping CSV from src (a local path or an http(s) URL,
// optionally a ZIP holding the CSV), validates the entries by compiling them,
// and writes manifest.yaml plus data.json under outputDir/<id>.
func ImportCSV(ctx context.Context, src, outputDir string, opts Options) (*dataset.Manifest, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("import: dataset id is required")
	}

	workDir, err := os.MkdirTemp("", "crosswalk-import-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	path, err := fetch(ctx, src, workDir)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := ParseCSV(f, opts.Comma, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}

	m := &dataset.Manifest{
		ID:          opts.ID,
		Version:     opts.Version,
		Description: opts.Description,
		Source:      src,
		License:     opts.License,
		DataFile:    "data.json",
		Format:      dataset.FormatJSON,
		Match:       opts.Match,
	}
	d, err := dataset.New(m, entries)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(outputDir, opts.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, m.DataFile), data, 0o644); err != nil {
		return nil, err
	}
	if err := dataset.WriteManifest(dir, m); err != nil {
		return nil, err
	}

	slog.Info("dataset imported", "dataset", m.ID, "entries", len(entries), "distinct", d.Len())
	return m, nil
}

// ParseCSV decodes mapping rows into entries, in file order. A zero comma
// means ','. Non-UTF-8 input is transcoded from the named encoding.
func ParseCSV(r io.Reader, comma rune, encoding string) ([]lookup.Entry, error) {
	if !isUTF8(encoding) {
		e, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	type column struct {
		field  string
		target bool
	}
	cols := make([]column, len(header))
	hasTarget := false
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case strings.HasPrefix(h, targetPrefix):
			cols[i] = column{field: strings.TrimPrefix(h, targetPrefix), target: true}
			hasTarget = true
		default:
			cols[i] = column{field: strings.TrimPrefix(h, sourcePrefix)}
		}
		if cols[i].field == "" {
			return nil, fmt.Errorf("column %d: empty field name", i+1)
		}
	}

	var entries []lookup.Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		e := lookup.Entry{Source: map[string]any{}}
		if hasTarget {
			e.Target = map[string]any{}
		}
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if cols[i].target {
				e.Target[cols[i].field] = cell
			} else {
				e.Source[cols[i].field] = cell
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
