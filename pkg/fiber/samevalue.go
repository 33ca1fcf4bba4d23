package fiber

import (
	"math"
	"reflect"
	"unsafe"
)

// SameValue is the equality used for dependency lists and eager bail-outs.
//
// Floats treat NaN as equal to itself and distinguish +0 from -0. Maps and
// funcs compare by identity, slices by backing array and length. Other
// comparable values use ==; anything else falls back to reflect.DeepEqual.
func SameValue(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		bv, ok := b.(float64)
		return ok && sameFloat(av, bv)
	case float32:
		bv, ok := b.(float32)
		return ok && sameFloat(float64(av), float64(bv))
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Func:
		return dataPointer(a) == dataPointer(b)
	case reflect.Map, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len()
	case reflect.Float32, reflect.Float64:
		return sameFloat(va.Float(), vb.Float())
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func sameFloat(a, b float64) bool {
	if a != a {
		return b != b
	}
	if a == 0 && b == 0 {
		return math.Signbit(a) == math.Signbit(b)
	}
	return a == b
}

type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// dataPointer returns the data word of an interface value. For funcs this
// is the closure, so two values are identical only if they are the same
// func value.
func dataPointer(v any) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&v)).data
}

// depsEqual compares two dependency lists position-wise with SameValue up
// to the shorter length.
func depsEqual(next, prev Deps) bool {
	n := len(next)
	if len(prev) < n {
		n = len(prev)
	}
	for i := 0; i < n; i++ {
		if !SameValue(next[i], prev[i]) {
			return false
		}
	}
	return true
}
