package lookup

import "encoding/gob"

func init() {
	// Entry values are decoded into interfaces; gob needs the concrete types.
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// Entry is one reference mapping: the source attributes it matches on and
// either a single target or a disaggregation into several targets.
type Entry struct {
	Source  map[string]any `json:"source" yaml:"source"`
	Target  map[string]any `json:"target,omitempty" yaml:"target,omitempty"`
	Targets any            `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// HasTarget reports whether the entry carries a single target mapping.
func (e *Entry) HasTarget() bool {
	return e.Target != nil
}

// HasTargets reports whether the entry is a disaggregation.
func (e *Entry) HasTargets() bool {
	return e.Targets != nil
}

// sameMapping reports whether two entries sharing a slot describe the same
// outcome. Only identical single targets qualify; disaggregations never merge.
func sameMapping(a, b *Entry) bool {
	if !a.HasTarget() || !b.HasTarget() {
		return false
	}
	if a.HasTargets() || b.HasTargets() {
		return false
	}
	return Equal(a.Target, b.Target)
}
