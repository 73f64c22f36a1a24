package template

import (
	"fmt"
	"sort"
	"strconv"
)

// ValueKind distinguishes the two kinds of context values.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
)

func (k ValueKind) String() string {
	if k == KindBool {
		return "bool"
	}
	return "string"
}

// Value is a scalar context value: a boolean or a string.
type Value struct {
	kind ValueKind
	b    bool
	s    string
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

// Bool returns the boolean and true when v is a boolean.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// String returns the text substituted for v: the string itself, or
// "true"/"false" for booleans.
func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return v.s
}

// Context is an immutable mapping from variable names to values for one
// render pass. The zero Context is empty and usable.
type Context struct {
	values map[string]Value
}

// NewContext returns a Context holding a copy of values.
func NewContext(values map[string]Value) Context {
	cp := make(map[string]Value, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Context{values: cp}
}

// ContextFromMap converts plain Go values. Only bool and string are
// accepted.
func ContextFromMap(values map[string]any) (Context, error) {
	cp := make(map[string]Value, len(values))
	for k, raw := range values {
		switch v := raw.(type) {
		case bool:
			cp[k] = BoolValue(v)
		case string:
			cp[k] = StringValue(v)
		default:
			return Context{}, fmt.Errorf("context variable %q: unsupported type %T (want bool or string)", k, raw)
		}
	}
	return Context{values: cp}, nil
}

// Lookup returns the value bound to name.
func (c Context) Lookup(name string) (Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Len returns the number of variables.
func (c Context) Len() int {
	return len(c.values)
}

// Keys returns the variable names in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a new Context with name bound to v. c is left unchanged.
func (c Context) With(name string, v Value) Context {
	next := NewContext(c.values)
	next.values[name] = v
	return next
}

// Merge returns a new Context holding the variables of c and other; other
// wins on conflicts.
func (c Context) Merge(other Context) Context {
	next := NewContext(c.values)
	for k, v := range other.values {
		next.values[k] = v
	}
	return next
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
