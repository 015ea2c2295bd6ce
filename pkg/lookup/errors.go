package lookup

import (
	"errors"
	"fmt"
)

var (
	// ErrMultipleTransformations indicates that two reference entries share a
	// matching key but could route a record to different outcomes.
	ErrMultipleTransformations = errors.New("multiple transformations")

	// ErrNotFound indicates that no reference entry matches a record.
	ErrNotFound = errors.New("no matching reference entry")
)

// MultipleTransformationsError reports an unresolvable collision found while
// building an index.
type MultipleTransformationsError struct {
	Combination Combination
	Values      []any
	Existing    *Entry
	Incoming    *Entry
}

func (e *MultipleTransformationsError) Error() string {
	return fmt.Sprintf("%v for combination %s with values %v: %s conflicts with %s",
		ErrMultipleTransformations, e.Combination, e.Values, describe(e.Existing), describe(e.Incoming))
}

func (e *MultipleTransformationsError) Unwrap() error { return ErrMultipleTransformations }

// NotFoundError reports a failed lookup. Combination is nil when the record
// satisfied no registered combination at all.
type NotFoundError struct {
	Combination Combination
	Record      map[string]any
}

func (e *NotFoundError) Error() string {
	if e.Combination == nil {
		return fmt.Sprintf("%v: record %v satisfies no field combination", ErrNotFound, e.Record)
	}
	return fmt.Sprintf("%v: combination %s for record %v", ErrNotFound, e.Combination, e.Record)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func describe(e *Entry) string {
	switch {
	case e.HasTargets():
		return fmt.Sprintf("{source: %v, targets: %v}", e.Source, e.Targets)
	case e.HasTarget():
		return fmt.Sprintf("{source: %v, target: %v}", e.Source, e.Target)
	default:
		return fmt.Sprintf("{source: %v}", e.Source)
	}
}
