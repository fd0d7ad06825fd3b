package value

import "slices"

// Pair is a key-value entry of an Object.
type Pair struct {
	Key   string
	Value Value
}

// O is a shorthand for Pair for ergonomic construction.
// Example: NewObject(O("name", String("cart")), O("count", Int(5)))
func O(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// Object is an ordered mapping of string keys to values.
// Iteration, rendering and JSON encoding follow insertion order.
type Object []Pair

func (Object) value() {}

// NewObject builds an Object from pairs. A repeated key keeps the position
// of its first occurrence and the value of its last.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, 0, len(pairs))
	for _, p := range pairs {
		if i := obj.index(p.Key); i >= 0 {
			obj[i].Value = p.Value
			continue
		}
		obj = append(obj, p)
	}
	return obj
}

// Len returns the number of entries.
func (o Object) Len() int {
	return len(o)
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	if i := o.index(key); i >= 0 {
		return o[i].Value, true
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, p := range o {
		keys[i] = p.Key
	}
	return keys
}

// With returns a copy of o with key set to v. An existing key keeps its
// position. The receiver is never modified.
func (o Object) With(key string, v Value) Object {
	out := slices.Clone(o)
	if i := out.index(key); i >= 0 {
		out[i].Value = v
		return out
	}
	return append(out, Pair{Key: key, Value: v})
}

func (o Object) index(key string) int {
	for i, p := range o {
		if p.Key == key {
			return i
		}
	}
	return -1
}
