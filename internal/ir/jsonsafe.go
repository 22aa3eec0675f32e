package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// JSONSafe returns a form of v that encoding/json accepts, following the
// browser's JSON.stringify rules: NaN and ±Inf become null, funcs, chans
// and complex numbers are dropped from objects and become null inside
// arrays. ok is false when v itself would be dropped.
//
// Values that already encode are returned unchanged.
func JSONSafe(v any) (safe any, ok bool) {
	if _, err := json.Marshal(v); err == nil {
		return v, true
	}
	return jsonSafe(reflect.ValueOf(v))
}

func jsonSafe(rv reflect.Value) (any, bool) {
	if !rv.IsValid() {
		return nil, true
	}

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, true
		}
		return rv.Interface(), true
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return nil, false
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return jsonSafe(rv.Elem())
	case reflect.Map:
		if rv.IsNil() {
			return nil, true
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if val, keep := jsonSafe(iter.Value()); keep {
				out[fmt.Sprint(iter.Key().Interface())] = val
			}
		}
		return out, true
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, true
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i], _ = jsonSafe(rv.Index(i))
		}
		return out, true
	}

	if !rv.CanInterface() {
		return nil, true
	}
	v := rv.Interface()
	if _, err := json.Marshal(v); err != nil {
		return nil, true
	}
	return v, true
}
