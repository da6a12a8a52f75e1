// Package keylookup finds the first value stored under a key anywhere in a
// decoded JSON-like tree of maps and slices.
package keylookup

import (
	"slices"
)

// Find walks obj depth first and returns the first non-nil value stored under key.
// A map's own entry is checked before its children; map children are visited in
// sorted key order and slice children by index. Nil is returned when nothing matches.
func Find(obj any, key string) any {
	stack := []any{obj}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch typed := node.(type) {
		case map[string]any:
			if v, ok := typed[key]; ok && v != nil {
				return v
			}
			keys := make([]string, 0, len(typed))
			for k := range typed {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, typed[keys[i]])
			}
		case []any:
			for i := len(typed) - 1; i >= 0; i-- {
				stack = append(stack, typed[i])
			}
		}
	}
	return nil
}

// FindString is Find restricted to string values; ok is false when no string was found.
func FindString(obj any, key string) (string, bool) {
	s, ok := Find(obj, key).(string)
	return s, ok
}
