package lookup

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// tupleKey encodes a value tuple as a comparable key. Every value carries a
// type tag, strings keep their exact bytes, and numbers go through
// numberKey so the key agrees with Equal.
func tupleKey(values []any) string {
	var b strings.Builder
	writeKey(&b, values)
	return b.String()
}

func writeKey(b *strings.Builder, v any) {
	if n, ok := numberKey(v); ok {
		b.WriteString("#")
		b.WriteString(n)
		return
	}
	switch x := v.(type) {
	case nil:
		b.WriteString("~")
		return
	case bool:
		if x {
			b.WriteString("T")
		} else {
			b.WriteString("F")
		}
		return
	case string:
		b.WriteString("s")
		b.WriteString(strconv.Quote(x))
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			b.WriteString("~")
			return
		}
		b.WriteString("[")
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(",")
			}
			writeKey(b, rv.Index(i).Interface())
		}
		b.WriteString("]")
	case reflect.Map:
		if rv.IsNil() {
			b.WriteString("~")
			return
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			var kb strings.Builder
			writeKey(&kb, iter.Key().Interface())
			kb.WriteString(":")
			writeKey(&kb, iter.Value().Interface())
			pairs = append(pairs, kb.String())
		}
		sort.Strings(pairs)
		b.WriteString("{")
		b.WriteString(strings.Join(pairs, ","))
		b.WriteString("}")
	default:
		fmt.Fprintf(b, "%T:%#v", v, v)
	}
}

const (
	two63 = 1 << 63
	two64 = float64(1<<63) * 2
)

// numberKey renders any Go numeric value canonically. Integers keep every
// digit; a float with an integral value in the int64 or uint64 range renders
// like the integer it equals, anything else uses the shortest float form.
func numberKey(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return floatKey(float64(n)), true
	case float64:
		return floatKey(n), true
	}
	return "", false
}

func floatKey(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		switch {
		case f >= -two63 && f < two63:
			return strconv.FormatInt(int64(f), 10)
		case f >= 0 && f < two64:
			return strconv.FormatUint(uint64(f), 10)
		}
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
