package lookup

import (
	"golang.org/x/text/cases"
)

// Normalizer transforms a source or query value before it becomes part of a
// value tuple.
type Normalizer func(any) any

// NormalizeFold case-folds strings and leaves every other value unchanged.
// A Caser carries state, so each call gets its own.
func NormalizeFold(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return cases.Fold().String(s)
}

// NormalizeNone returns the value unchanged.
func NormalizeNone(v any) any {
	return v
}

// GetNormalizer returns the normalizer for the given case sensitivity.
func GetNormalizer(caseSensitive bool) Normalizer {
	if caseSensitive {
		return NormalizeNone
	}
	return NormalizeFold
}
