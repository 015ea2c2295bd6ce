package lookup

import "testing"

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"int and float", 1, 1.0, true},
		{"int64 and int", int64(3), 3, true},
		{"number and string", 1, "1", false},
		{"nil maps", map[string]any(nil), nil, true},
		{"nested maps", src("a", src("b", []any{1, "x"})), src("a", src("b", []any{1.0, "x"})), true},
		{"extra key", src("a", 1), src("a", 1, "b", 2), false},
		{"different value", src("a", 1), src("a", 2), false},
		{"slice order", []any{1, 2}, []any{2, 1}, false},
		{"typed map against any map", map[string]string{"a": "x"}, src("a", "x"), true},
		{"map against slice", src(), []any{}, false},
		{"empty maps", map[string]any{}, map[string]any{}, true},
		{"bools", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Equal(tt.b, tt.a); got != tt.want {
				t.Errorf("Equal(%#v, %#v) = %v, want %v (reversed)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
