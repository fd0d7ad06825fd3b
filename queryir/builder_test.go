package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riwaq/riwaq-go/value"
)

var (
	a = Eq{Col: "a", Value: value.Int(1)}
	b = Eq{Col: "b", Value: value.Int(2)}
	c = Eq{Col: "c", Value: value.Int(3)}
	d = IsNull{Col: "d"}
)

func TestAndWith_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		root Predicate
		want Predicate
	}{
		{"nil root yields the leaf", nil, c},
		{"leaf root pairs", a, And{Predicates: []Predicate{a, c}}},
		{"and root flattens", And{Predicates: []Predicate{a, b}}, And{Predicates: []Predicate{a, b, c}}},
		{"or root wraps", Or{Predicates: []Predicate{a, b}}, And{Predicates: []Predicate{Or{Predicates: []Predicate{a, b}}, c}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AndWith(tt.root, c))
		})
	}
}

func TestOrWith_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		root Predicate
		want Predicate
	}{
		{"nil root yields the leaf", nil, c},
		{"leaf root pairs", a, Or{Predicates: []Predicate{a, c}}},
		{"or root flattens", Or{Predicates: []Predicate{a, b}}, Or{Predicates: []Predicate{a, b, c}}},
		{"and root wraps", And{Predicates: []Predicate{a, b}}, Or{Predicates: []Predicate{And{Predicates: []Predicate{a, b}}, c}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrWith(tt.root, c))
		})
	}
}

func TestAndAll_Dispatch(t *testing.T) {
	or := Or{Predicates: []Predicate{a, b}}

	assert.Equal(t, And{Predicates: []Predicate{c, d}}, AndAll(nil, c, d))
	assert.Equal(t, And{Predicates: []Predicate{a, c, d}}, AndAll(a, c, d))
	assert.Equal(t, And{Predicates: []Predicate{a, b, c, d}}, AndAll(And{Predicates: []Predicate{a, b}}, c, d))
	assert.Equal(t, And{Predicates: []Predicate{or, c, d}}, AndAll(or, c, d))
}

func TestOrAny_Dispatch(t *testing.T) {
	and := And{Predicates: []Predicate{a, b}}

	assert.Equal(t, Or{Predicates: []Predicate{c, d}}, OrAny(nil, c, d))
	assert.Equal(t, Or{Predicates: []Predicate{a, c, d}}, OrAny(a, c, d))
	assert.Equal(t, Or{Predicates: []Predicate{a, b, c, d}}, OrAny(Or{Predicates: []Predicate{a, b}}, c, d))
	assert.Equal(t, Or{Predicates: []Predicate{and, c, d}}, OrAny(and, c, d))
}

func TestBulk_NilRootSingleAndEmptyBatch(t *testing.T) {
	// A nil root always produces a combinator for bulk operations.
	assert.Equal(t, And{Predicates: []Predicate{a}}, AndAll(nil, a))
	assert.Equal(t, Or{Predicates: []Predicate{a}}, OrAny(nil, a))

	// Empty batches are legal and produce empty groups.
	assert.Equal(t, And{Predicates: []Predicate{}}, AndAll(nil))
	assert.Equal(t, Or{Predicates: []Predicate{a}}, OrAny(a))
}

func TestAndWith_RepeatedStaysFlat(t *testing.T) {
	var root Predicate = a
	root = AndWith(root, b)
	root = AndWith(root, c)
	root = AndWith(root, d)

	assert.Equal(t, And{Predicates: []Predicate{a, b, c, d}}, root)
}

func TestAndWith_DoesNotAliasParent(t *testing.T) {
	// Give the parent spare capacity so a naive append would share it.
	parentPreds := make([]Predicate, 2, 8)
	parentPreds[0], parentPreds[1] = a, b
	parent := And{Predicates: parentPreds}

	left := AndWith(parent, c)
	right := AndWith(parent, d)

	assert.Equal(t, And{Predicates: []Predicate{a, b, c}}, left)
	assert.Equal(t, And{Predicates: []Predicate{a, b, d}}, right)
	assert.Len(t, parent.Predicates, 2)
}

func TestAllOfAnyOf_CopyInput(t *testing.T) {
	preds := []Predicate{a, b}
	and := AllOf(preds...)
	or := AnyOf(preds...)
	preds[0] = c

	assert.Equal(t, And{Predicates: []Predicate{a, b}}, and)
	assert.Equal(t, Or{Predicates: []Predicate{a, b}}, or)
}
