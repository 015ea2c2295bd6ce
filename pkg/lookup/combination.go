package lookup

import (
	"sort"
	"strings"
)

// IgnoredFields describe a mapping but never take part in matching.
var IgnoredFields = []string{"allocation", "conversion_factor"}

// Combination is the sorted list of attribute names an entry is indexed by.
type Combination []string

// String renders the combination as "(a, b)".
func (c Combination) String() string {
	return "(" + strings.Join(c, ", ") + ")"
}

// key is the map key for a combination. Attribute names never contain the
// unit separator.
func (c Combination) key() string {
	return strings.Join(c, "\x1f")
}

// Contains reports whether name is part of the combination.
func (c Combination) Contains(name string) bool {
	i := sort.SearchStrings(c, name)
	return i < len(c) && c[i] == name
}

// SatisfiedBy reports whether every attribute of the combination is present
// in record.
func (c Combination) SatisfiedBy(record map[string]any) bool {
	for _, name := range c {
		if _, ok := record[name]; !ok {
			return false
		}
	}
	return true
}

func isIgnored(name string) bool {
	for _, f := range IgnoredFields {
		if f == name {
			return true
		}
	}
	return false
}

// fieldSet is an optional allow-list. A nil set admits every field.
type fieldSet map[string]struct{}

func newFieldSet(fields []string) fieldSet {
	if fields == nil {
		return nil
	}
	s := make(fieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

func (s fieldSet) admits(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s[name]
	return ok
}

// ExtractCombination returns the combination for a source mapping: its
// attribute names minus IgnoredFields, restricted to filter when filter is
// non-nil, sorted.
func ExtractCombination(source map[string]any, filter []string) Combination {
	return extractCombination(source, newFieldSet(filter))
}

func extractCombination(source map[string]any, filter fieldSet) Combination {
	c := make(Combination, 0, len(source))
	for name := range source {
		if isIgnored(name) || !filter.admits(name) {
			continue
		}
		c = append(c, name)
	}
	sort.Strings(c)
	return c
}
