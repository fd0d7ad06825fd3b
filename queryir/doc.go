// Package queryir provides the filter and statement model of the riwaq SQL
// SDK: a typed tree of boolean predicates, the composition rules used to grow
// that tree, and the Select / Update requests that own one.
//
// ARCHITECTURE:
//
//	[builder calls] → [queryir tree] → [querysql renderer] → SQL text
//	                                 → [JSON envelope]     → host executor
//
// The package holds structure only. Rendering lives in package querysql and
// transport lives in package bridge.
//
// SEALED INTERFACES:
//
// Predicate, Condition and Request are sealed interfaces using the marker
// method pattern. Only types in this package implement them, which lets the
// renderer and the JSON codec use exhaustive type switches.
//
//	switch p := pred.(type) {
//	case And:
//	    // conjunction
//	case Or:
//	    // disjunction
//	case Condition:
//	    // leaf on a single column
//	}
//
// Leaves are plain values (Eq{...}, In{...}); construct them as values, not
// pointers.
//
// COMPOSITION ALGEBRA:
//
// AndWith / OrWith / AndAll / OrAny merge new leaves into an existing tree.
// The tree shape is the precedence: joining a node of the same kind flattens
// into it, joining a node of the other kind wraps it one level deeper, and
// joining a bare leaf pairs the two under a new node.
//
//	AndWith(And{a, b}, c)  →  And{a, b, c}
//	AndWith(Or{a, b}, c)   →  And{Or{a, b}, c}
//	AndWith(a, b)          →  And{a, b}
//	AndWith(nil, a)        →  a
//
// Every operation is a functional update. Inputs are never modified and the
// result never shares a backing array with a tree the caller still holds.
//
// WIRE FORMAT:
//
// Requests encode to a JSON envelope keyed by an "op" discriminator:
//
//	{"op":"Select","tbl":"users","cols":["id"],"filter":{"Filter":{"Eq":{"col":"id","value":1}}}}
//	{"op":"Update","tbl":"users","values":{"age":30},"filter":null}
//
// Column names are opaque strings. Nothing in this package checks them
// against a schema.
package queryir
