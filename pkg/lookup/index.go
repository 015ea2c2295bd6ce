// Package lookup resolves candidate records against reference entries.
//
// Every entry is indexed under its field combination (the sorted names of its
// matching attributes) and the normalized values of those attributes. A record
// is resolved by picking the registered combination it corresponds to and
// looking up its own normalized values under it.
//
// An Index is immutable once built and safe for concurrent lookups.
package lookup

import (
	"encoding/json"
	"log/slog"
	"sort"
)

// Options configure how an Index matches.
type Options struct {
	// FieldsFilter restricts matching to these attribute names. Nil means
	// every attribute except IgnoredFields takes part.
	FieldsFilter []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	// CaseSensitive disables case folding of string values.
	CaseSensitive bool `json:"case_sensitive" yaml:"case_sensitive"`
}

// optionsDoc is the encoded form of Options. The filter is a pointer so a
// nil filter is omitted while an empty one is written as [].
type optionsDoc struct {
	FieldsFilter  *[]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	CaseSensitive bool      `json:"case_sensitive" yaml:"case_sensitive"`
}

func (o Options) doc() optionsDoc {
	d := optionsDoc{CaseSensitive: o.CaseSensitive}
	if o.FieldsFilter != nil {
		d.FieldsFilter = &o.FieldsFilter
	}
	return d
}

// MarshalYAML keeps the nil and empty filters distinct.
func (o Options) MarshalYAML() (any, error) { return o.doc(), nil }

// MarshalJSON keeps the nil and empty filters distinct.
func (o Options) MarshalJSON() ([]byte, error) { return json.Marshal(o.doc()) }

// Index maps field combination -> normalized value tuple -> reference entry.
type Index struct {
	opts      Options
	normalize Normalizer
	filter    fieldSet

	combos    []Combination  // registration order
	comboIdx  map[string]int // combination key -> position in combos
	fields    map[string]struct{}
	slots     map[string]map[string]*Entry
	size      int
	duplicate int
}

// Match is a successful lookup.
type Match struct {
	Combination Combination `json:"combination"`
	Entry       *Entry      `json:"entry"`
}

// New builds an Index over entries in order. It fails with a
// *MultipleTransformationsError when two entries share a combination and
// normalized values without carrying the same single target.
func New(entries []Entry, opts Options) (*Index, error) {
	idx := &Index{
		opts:      opts,
		normalize: GetNormalizer(opts.CaseSensitive),
		filter:    newFieldSet(opts.FieldsFilter),
		comboIdx:  make(map[string]int),
		fields:    make(map[string]struct{}),
		slots:     make(map[string]map[string]*Entry),
	}

	for i := range entries {
		entry := entries[i]
		if err := idx.insert(&entry); err != nil {
			return nil, err
		}
	}

	if idx.duplicate > 0 {
		slog.Debug("redundant reference entries merged", "duplicates", idx.duplicate)
	}
	return idx, nil
}

func (idx *Index) insert(entry *Entry) error {
	combo := extractCombination(entry.Source, idx.filter)
	ck := idx.register(combo)

	values := idx.values(combo, entry.Source)
	vk := tupleKey(values)

	slot := idx.slots[ck]
	existing, ok := slot[vk]
	if !ok {
		slot[vk] = entry
		idx.size++
		return nil
	}
	if sameMapping(existing, entry) {
		idx.duplicate++
		return nil
	}
	return &MultipleTransformationsError{
		Combination: combo,
		Values:      values,
		Existing:    existing,
		Incoming:    entry,
	}
}

// register records combo if unseen and returns its key.
func (idx *Index) register(combo Combination) string {
	ck := combo.key()
	if _, ok := idx.comboIdx[ck]; ok {
		return ck
	}
	idx.comboIdx[ck] = len(idx.combos)
	idx.combos = append(idx.combos, combo)
	idx.slots[ck] = make(map[string]*Entry)
	for _, name := range combo {
		idx.fields[name] = struct{}{}
	}
	return ck
}

// values returns the normalized values of record in combination order.
func (idx *Index) values(combo Combination, record map[string]any) []any {
	out := make([]any, len(combo))
	for i, name := range combo {
		out[i] = idx.normalize(record[name])
	}
	return out
}

// Resolve returns the reference entry matching record.
func (idx *Index) Resolve(record map[string]any) (*Entry, error) {
	m, err := idx.Match(record)
	if err != nil {
		return nil, err
	}
	return m.Entry, nil
}

// Match returns the reference entry matching record together with the
// combination it was found under. It fails with a *NotFoundError when no
// entry matches.
func (idx *Index) Match(record map[string]any) (*Match, error) {
	combo, ok := idx.selectCombination(record)
	if !ok {
		return nil, &NotFoundError{Record: record}
	}

	entry, ok := idx.slots[combo.key()][tupleKey(idx.values(combo, record))]
	if !ok {
		return nil, &NotFoundError{Combination: combo, Record: record}
	}
	return &Match{Combination: combo, Entry: entry}, nil
}

// selectCombination projects the record onto the attribute names known to
// the index. When that projection is not registered, the first combination
// in construction order that the record satisfies is used.
func (idx *Index) selectCombination(record map[string]any) (Combination, bool) {
	projected := make(Combination, 0, len(record))
	for name := range record {
		if _, ok := idx.fields[name]; ok {
			projected = append(projected, name)
		}
	}
	sort.Strings(projected)
	if i, ok := idx.comboIdx[projected.key()]; ok {
		return idx.combos[i], true
	}

	for _, c := range idx.combos {
		if c.SatisfiedBy(record) {
			return c, true
		}
	}
	return nil, false
}

// SatisfiedCombinations returns every registered combination whose attributes
// are all present in record, in construction order. More than one result
// means the fields filter does not separate the record shapes it serves.
func (idx *Index) SatisfiedCombinations(record map[string]any) []Combination {
	var out []Combination
	for _, c := range idx.combos {
		if c.SatisfiedBy(record) {
			out = append(out, c)
		}
	}
	return out
}

// Combinations returns the registered combinations sorted by length, then
// lexically.
func (idx *Index) Combinations() []Combination {
	out := make([]Combination, len(idx.combos))
	copy(out, idx.combos)
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i].key() < out[j].key()
	})
	return out
}

// Len returns the number of distinct entries stored.
func (idx *Index) Len() int { return idx.size }

// Duplicates returns how many redundant entries were merged during build.
func (idx *Index) Duplicates() int { return idx.duplicate }

// Options returns the options the index was built with.
func (idx *Index) Options() Options { return idx.opts }
