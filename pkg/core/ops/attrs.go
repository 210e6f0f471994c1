package ops

import "github.com/gomlx/exceptions"

// Attrs are the non-tensor arguments of an operator call, e.g. the "dim" of a cumulative sum.
type Attrs map[string]any

// Int returns the integer attribute key, or defaultValue if not set.
func (a Attrs) Int(key string, defaultValue int) int {
	v, found := a[key]
	if !found {
		return defaultValue
	}
	i, ok := v.(int)
	if !ok {
		exceptions.Panicf("attribute %q must be an int, got %T", key, v)
	}
	return i
}

// Ints returns the []int attribute key, or defaultValue if not set.
func (a Attrs) Ints(key string, defaultValue []int) []int {
	v, found := a[key]
	if !found {
		return defaultValue
	}
	ints, ok := v.([]int)
	if !ok {
		exceptions.Panicf("attribute %q must be an []int, got %T", key, v)
	}
	return ints
}

// Float returns the float64 attribute key, or defaultValue if not set.
func (a Attrs) Float(key string, defaultValue float64) float64 {
	v, found := a[key]
	if !found {
		return defaultValue
	}
	f, ok := v.(float64)
	if !ok {
		exceptions.Panicf("attribute %q must be a float64, got %T", key, v)
	}
	return f
}

// Bool returns the boolean attribute key, or defaultValue if not set.
func (a Attrs) Bool(key string, defaultValue bool) bool {
	v, found := a[key]
	if !found {
		return defaultValue
	}
	b, ok := v.(bool)
	if !ok {
		exceptions.Panicf("attribute %q must be a bool, got %T", key, v)
	}
	return b
}

// Str returns the string attribute key, or defaultValue if not set.
func (a Attrs) Str(key string, defaultValue string) string {
	v, found := a[key]
	if !found {
		return defaultValue
	}
	s, ok := v.(string)
	if !ok {
		exceptions.Panicf("attribute %q must be a string, got %T", key, v)
	}
	return s
}
