package queryir

import (
	"slices"

	"github.com/riwaq/riwaq-go/value"
)

// Operation names used as the "op" discriminator of the request envelope.
const (
	OpSelect = "Select"
	OpUpdate = "Update"
)

// Request is a statement that can be shipped to the host.
//
// This is a sealed interface - only Select and Update implement it.
type Request interface {
	Op() string
	requestNode() // Marker method - seals interface to this package
}

// Select represents a read statement.
//
// Semantics:
//
//	SELECT <columns> FROM <table> [WHERE <filter>];
//
// Columns are emitted verbatim; Filter is optional (nil = no WHERE clause).
// Builder methods use value receivers and return an updated copy, so a
// Select can be shared and extended freely:
//
//	base := NewSelect("users", "id", "name")
//	active := base.Where(Eq{Col: "status", Value: value.String("active")})
//	// base still has no filter
type Select struct {
	Table   string
	Columns []string
	Filter  Predicate
}

// NewSelect creates a Select over table projecting columns.
func NewSelect(table string, columns ...string) Select {
	return Select{Table: table, Columns: slices.Clone(columns)}
}

// Op implements Request.
func (Select) Op() string { return OpSelect }

func (Select) requestNode() {}

// And adds c to the filter with AndWith.
func (s Select) And(c Condition) Select {
	s.Filter = AndWith(s.Filter, c)
	return s
}

// Where is an alias for And.
func (s Select) Where(c Condition) Select {
	return s.And(c)
}

// AndAll adds a batch of conditions to the filter with AndAll.
func (s Select) AndAll(cs ...Condition) Select {
	s.Filter = AndAll(s.Filter, cs...)
	return s
}

// Or adds c to the filter with OrWith.
func (s Select) Or(c Condition) Select {
	s.Filter = OrWith(s.Filter, c)
	return s
}

// OrAny adds a batch of conditions to the filter with OrAny.
func (s Select) OrAny(cs ...Condition) Select {
	s.Filter = OrAny(s.Filter, cs...)
	return s
}

// Update represents a write statement.
//
// Semantics:
//
//	UPDATE <table> SET <col1> = <v1>, <col2> = <v2>, ... [WHERE <filter>];
//
// Values keeps assignment order, which is also the SET clause order.
type Update struct {
	Table  string
	Values value.Object
	Filter Predicate
}

// NewUpdate creates an Update of table with no assignments.
func NewUpdate(table string) Update {
	return Update{Table: table}
}

// Op implements Request.
func (Update) Op() string { return OpUpdate }

func (Update) requestNode() {}

// Set assigns v to column. Setting the same column again replaces the value
// in its original position.
func (u Update) Set(column string, v value.Value) Update {
	u.Values = u.Values.With(column, v)
	return u
}

// And adds c to the filter with AndWith.
func (u Update) And(c Condition) Update {
	u.Filter = AndWith(u.Filter, c)
	return u
}

// Where is an alias for And.
func (u Update) Where(c Condition) Update {
	return u.And(c)
}

// AndAll adds a batch of conditions to the filter with AndAll.
func (u Update) AndAll(cs ...Condition) Update {
	u.Filter = AndAll(u.Filter, cs...)
	return u
}

// Or adds c to the filter with OrWith.
func (u Update) Or(c Condition) Update {
	u.Filter = OrWith(u.Filter, c)
	return u
}

// OrAny adds a batch of conditions to the filter with OrAny.
func (u Update) OrAny(cs ...Condition) Update {
	u.Filter = OrAny(u.Filter, cs...)
	return u
}
