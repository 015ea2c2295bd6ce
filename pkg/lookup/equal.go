package lookup

import "reflect"

// Equal reports whether a and b are structurally equal. Maps compare by keys
// and values, slices element-wise, and numbers by value regardless of their Go
// type, so an int decoded from YAML equals the same float64 decoded from JSON.
// Numbers compare through the same canonical form the index keys use.
func Equal(a, b any) bool {
	if na, ok := numberKey(a); ok {
		nb, ok := numberKey(b)
		return ok && na == nb
	}
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map:
		if vb.Kind() != reflect.Map || va.Len() != vb.Len() {
			return false
		}
		if !va.Type().Key().AssignableTo(vb.Type().Key()) {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() {
				return false
			}
			if !Equal(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if vb.Kind() != reflect.Slice && vb.Kind() != reflect.Array {
			return false
		}
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !Equal(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
