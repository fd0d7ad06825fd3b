// Package value provides the dynamically-typed value model used by riwaq
// filters and statements.
//
// A Value is one of Null, Bool, Number, String, Array or Object. The set is
// closed: Value is a sealed interface and only the types in this package
// implement it, so renderers can use exhaustive type switches.
//
// Key design constraints:
//   - Values are immutable once constructed; helpers that "modify" an
//     Object return a new Object.
//   - Number keeps the natural textual form of the number. Integers never
//     gain a trailing ".0".
//   - Object preserves insertion order. Rendering and JSON encoding follow
//     that order; canonical encoding sorts keys instead.
package value
