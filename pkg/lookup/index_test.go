package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func src(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func basicEntries() []Entry {
	return []Entry{
		{Source: src("foo", "a", "bar", "b")},
		{Source: src("foo", "b")},
	}
}

func TestIndexBasic(t *testing.T) {
	idx, err := New(basicEntries(), Options{CaseSensitive: true})
	require.NoError(t, err)

	got, err := idx.Resolve(src("foo", "b"))
	require.NoError(t, err)
	assert.Equal(t, src("foo", "b"), got.Source)

	got, err = idx.Resolve(src("foo", "a", "bar", "b"))
	require.NoError(t, err)
	assert.Equal(t, src("foo", "a", "bar", "b"), got.Source)

	_, err = idx.Resolve(src("foo", "B"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrMultipleTransformations)

	assert.ElementsMatch(t, []Combination{{"foo"}, {"bar", "foo"}}, idx.Combinations())
	assert.Equal(t, 2, idx.Len())
}

func TestIndexCaseInsensitive(t *testing.T) {
	idx, err := New(basicEntries(), Options{CaseSensitive: false})
	require.NoError(t, err)

	tests := []struct {
		name   string
		record map[string]any
		want   map[string]any
	}{
		{"exact", src("foo", "b"), src("foo", "b")},
		{"upper", src("foo", "B"), src("foo", "b")},
		{"mixed two fields", src("foo", "a", "bar", "B"), src("foo", "a", "bar", "b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Resolve(tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Source)
		})
	}
}

func TestIndexKeepsStoredCasing(t *testing.T) {
	idx, err := New([]Entry{{Source: src("name", "Élodie")}}, Options{})
	require.NoError(t, err)

	got, err := idx.Resolve(src("name", "ÉLODIE"))
	require.NoError(t, err)
	assert.Equal(t, "Élodie", got.Source["name"])
}

func TestIndexFieldsFilter(t *testing.T) {
	idx, err := New(basicEntries(), Options{FieldsFilter: []string{"foo"}})
	require.NoError(t, err)

	tests := []struct {
		name   string
		record map[string]any
		want   map[string]any
	}{
		{"single", src("foo", "b"), src("foo", "b")},
		{"extra field ignored", src("foo", "b", "other", "whatever"), src("foo", "b")},
		{"folded", src("foo", "B"), src("foo", "b")},
		{"filtered field ignored", src("foo", "a", "bar", "B"), src("foo", "a", "bar", "b")},
		{"narrowed", src("foo", "a"), src("foo", "a", "bar", "b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Resolve(tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Source)
		})
	}

	assert.Equal(t, []Combination{{"foo"}}, idx.Combinations())
}

func TestIndexFilterIsUpperBound(t *testing.T) {
	filter := []string{"foo", "baz"}
	entries := []Entry{
		{Source: src("foo", "a", "bar", "b", "baz", "c")},
		{Source: src("bar", "x")},
		{Source: src("baz", "y", "qux", 1)},
	}
	idx, err := New(entries, Options{FieldsFilter: filter})
	require.NoError(t, err)

	for _, c := range idx.Combinations() {
		for _, name := range c {
			assert.Contains(t, filter, name)
		}
	}
}

func TestIndexIgnoredFields(t *testing.T) {
	for _, field := range IgnoredFields {
		t.Run(field, func(t *testing.T) {
			entries := []Entry{
				{Source: src("foo", "a", "bar", "b", field, 0.5)},
				{Source: src("foo", "b")},
			}
			idx, err := New(entries, Options{CaseSensitive: true})
			require.NoError(t, err)

			got, err := idx.Resolve(src("foo", "a", "bar", "b"))
			require.NoError(t, err)
			assert.Equal(t, src("foo", "a", "bar", "b", field, 0.5), got.Source)
			assert.ElementsMatch(t, []Combination{{"foo"}, {"bar", "foo"}}, idx.Combinations())
		})
	}
}

func TestIndexFilterWithIgnoredFields(t *testing.T) {
	entries := []Entry{
		{Source: src("foo", "a", "bar", "b", "allocation", 0.25)},
		{Source: src("foo", "b", "conversion_factor", 3.6)},
	}
	idx, err := New(entries, Options{FieldsFilter: []string{"foo"}})
	require.NoError(t, err)

	assert.Equal(t, []Combination{{"foo"}}, idx.Combinations())

	got, err := idx.Resolve(src("foo", "a"))
	require.NoError(t, err)
	assert.Equal(t, src("foo", "a", "bar", "b", "allocation", 0.25), got.Source)
}

func TestIndexSimilarAllowed(t *testing.T) {
	entries := []Entry{
		{Source: src("foo", "a", "bar", "b"), Target: src("foo", "strawberry")},
		{Source: src("foo", "a"), Target: src("foo", "strawberry")},
	}
	idx, err := New(entries, Options{FieldsFilter: []string{"foo"}})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, idx.Duplicates())

	// The first entry keeps the slot.
	got, err := idx.Resolve(src("foo", "A"))
	require.NoError(t, err)
	assert.Equal(t, src("foo", "a", "bar", "b"), got.Source)
}

func TestIndexSimilarAllowedNumericTypes(t *testing.T) {
	entries := []Entry{
		{Source: src("code", 7), Target: src("factor", 1, "tags", []any{"x", 2})},
		{Source: src("code", 7.0), Target: src("factor", 1.0, "tags", []any{"x", int64(2)})},
	}
	_, err := New(entries, Options{})
	require.NoError(t, err)
}

func TestIndexMultipleTransformations(t *testing.T) {
	entries := []Entry{
		{Source: src("foo", "a", "bar", "b"), Target: src("foo", "strawberry")},
		{Source: src("foo", "a"), Target: src("foo", "raspberry")},
	}
	_, err := New(entries, Options{FieldsFilter: []string{"foo"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleTransformations)

	var mt *MultipleTransformationsError
	require.True(t, errors.As(err, &mt))
	assert.Equal(t, Combination{"foo"}, mt.Combination)
	assert.Equal(t, []any{"a"}, mt.Values)
	assert.Equal(t, "strawberry", mt.Existing.Target["foo"])
	assert.Equal(t, "raspberry", mt.Incoming.Target["foo"])
	assert.Contains(t, err.Error(), "(foo)")
}

func TestIndexMultipleTransformationsDisaggregation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{
			name: "equal empty targets",
			entries: []Entry{
				{Source: src("foo", "a", "bar", "b"), Targets: map[string]any{}},
				{Source: src("foo", "a"), Targets: map[string]any{}},
			},
		},
		{
			name: "equal target lists",
			entries: []Entry{
				{Source: src("foo", "a"), Targets: []any{src("x", 1)}},
				{Source: src("foo", "a"), Targets: []any{src("x", 1)}},
			},
		},
		{
			name: "target against targets",
			entries: []Entry{
				{Source: src("foo", "a"), Target: src("x", 1)},
				{Source: src("foo", "a"), Targets: []any{src("x", 1)}},
			},
		},
		{
			name: "neither target",
			entries: []Entry{
				{Source: src("foo", "a")},
				{Source: src("foo", "a")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries, Options{FieldsFilter: []string{"foo"}})
			assert.ErrorIs(t, err, ErrMultipleTransformations)
		})
	}
}

func TestIndexCaseFoldingCollides(t *testing.T) {
	entries := []Entry{
		{Source: src("foo", "a"), Target: src("x", "1")},
		{Source: src("foo", "A"), Target: src("x", "2")},
	}

	_, err := New(entries, Options{CaseSensitive: true})
	require.NoError(t, err)

	_, err = New(entries, Options{CaseSensitive: false})
	assert.ErrorIs(t, err, ErrMultipleTransformations)
}

func TestIndexRoundTrip(t *testing.T) {
	entries := []Entry{
		{Source: src("name", "steel", "unit", "kg"), Target: src("name", "steel, low-alloyed")},
		{Source: src("name", "electricity"), Target: src("name", "electricity, high voltage")},
		{Source: src("code", 42, "flag", true), Target: src("code", 43)},
		{Source: src("location", "CH", "name", "heat", "allocation", 1.0), Target: src("location", "RER")},
	}
	idx, err := New(entries, Options{CaseSensitive: true})
	require.NoError(t, err)

	for _, e := range entries {
		got, err := idx.Resolve(e.Source)
		require.NoError(t, err, "resolve %v", e.Source)
		assert.Equal(t, e.Source, got.Source)
		assert.Equal(t, e.Target, got.Target)
	}
}

func TestIndexNonStringValues(t *testing.T) {
	entries := []Entry{
		{Source: src("code", 1), Target: src("v", "int")},
		{Source: src("code", "1"), Target: src("v", "string")},
		{Source: src("code", true), Target: src("v", "bool")},
	}
	idx, err := New(entries, Options{})
	require.NoError(t, err)

	tests := []struct {
		query any
		want  string
	}{
		{1, "int"},
		{1.0, "int"},
		{"1", "string"},
		{true, "bool"},
	}
	for _, tt := range tests {
		got, err := idx.Resolve(src("code", tt.query))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Target["v"], "query %#v", tt.query)
	}
}

func TestIndexNoCombination(t *testing.T) {
	idx, err := New(basicEntries(), Options{CaseSensitive: true})
	require.NoError(t, err)

	_, err = idx.Resolve(src("other", "x"))
	require.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Nil(t, nf.Combination)
}

func TestIndexSelectsFirstSatisfiedCombination(t *testing.T) {
	entries := []Entry{
		{Source: src("foo", "a", "bar", "b")},
		{Source: src("foo", "a", "baz", "c")},
	}
	idx, err := New(entries, Options{CaseSensitive: true})
	require.NoError(t, err)

	// {bar, baz, foo} is not registered; both two-field combinations fit.
	record := src("foo", "a", "bar", "b", "baz", "c")
	assert.Equal(t, []Combination{{"bar", "foo"}, {"baz", "foo"}}, idx.SatisfiedCombinations(record))

	m, err := idx.Match(record)
	require.NoError(t, err)
	assert.Equal(t, Combination{"bar", "foo"}, m.Combination)
}

func TestIndexEmptyCombination(t *testing.T) {
	entries := []Entry{{Source: src("allocation", 1.0), Target: src("x", 1)}}
	idx, err := New(entries, Options{})
	require.NoError(t, err)

	assert.Equal(t, []Combination{{}}, idx.Combinations())
	got, err := idx.Resolve(src("anything", "at all"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Target["x"])
}

func TestIndexEmptyFilter(t *testing.T) {
	idx, err := New([]Entry{{Source: src("foo", "a")}}, Options{FieldsFilter: []string{}})
	require.NoError(t, err)
	assert.Equal(t, []Combination{{}}, idx.Combinations())
}

func TestIndexDoesNotAliasInputSlice(t *testing.T) {
	entries := basicEntries()
	idx, err := New(entries, Options{})
	require.NoError(t, err)

	entries[1] = Entry{Source: src("foo", "zzz")}
	got, err := idx.Resolve(src("foo", "b"))
	require.NoError(t, err)
	assert.Equal(t, src("foo", "b"), got.Source)
}

func TestIndexNonUTF8ValuesStayDistinct(t *testing.T) {
	entries := []Entry{
		{Source: src("name", "caf\xe9"), Target: src("x", 1)},
		{Source: src("name", "caf\xe8"), Target: src("x", 2)},
	}
	idx, err := New(entries, Options{CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	got, err := idx.Resolve(src("name", "caf\xe8"))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Target["x"])

	_, err = idx.Resolve(src("name", "caf\xfc"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndexLargeIntegersStayExact(t *testing.T) {
	entries := []Entry{
		{Source: src("id", int64(9007199254740993)), Target: src("v", "odd")},
		{Source: src("id", float64(9007199254740992)), Target: src("v", "even")},
	}
	idx, err := New(entries, Options{})
	require.NoError(t, err)

	got, err := idx.Resolve(src("id", int64(9007199254740992)))
	require.NoError(t, err)
	assert.Equal(t, "even", got.Target["v"])

	got, err = idx.Resolve(src("id", uint64(9007199254740993)))
	require.NoError(t, err)
	assert.Equal(t, "odd", got.Target["v"])
}
