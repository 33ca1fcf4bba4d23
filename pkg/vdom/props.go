package vdom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// PropChange is one attribute mutation applied to a host instance at commit.
type PropChange struct {
	Key     string
	Value   any
	Removed bool
}

// DiffProps returns the attribute changes that turn prev into next.
// Reserved keys ("key", "children") and event handler props ("on*") are
// skipped. The result is sorted by key.
func DiffProps(prev, next Props) []PropChange {
	var changes []PropChange

	// Check for removed/changed props
	for key, prevVal := range prev {
		if skipProp(key) {
			continue
		}
		nextVal, exists := next[key]
		if !exists {
			changes = append(changes, PropChange{Key: key, Removed: true})
		} else if !PropsEqual(prevVal, nextVal) {
			changes = append(changes, PropChange{Key: key, Value: nextVal})
		}
	}

	// Check for added props
	for key, nextVal := range next {
		if skipProp(key) {
			continue
		}
		if _, exists := prev[key]; !exists {
			changes = append(changes, PropChange{Key: key, Value: nextVal})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}

// HostProps returns the props of p that a host should render as attributes.
func HostProps(p Props) Props {
	out := make(Props, len(p))
	for k, v := range p {
		if !skipProp(k) {
			out[k] = v
		}
	}
	return out
}

func skipProp(key string) bool {
	return key == "key" || key == "children" || isEventHandler(key)
}

func isEventHandler(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// PropsEqual compares two prop values for equality.
func PropsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

// PropToString converts a prop value to its attribute string form.
func PropToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
