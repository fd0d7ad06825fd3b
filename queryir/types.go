package queryir

import (
	"slices"

	"github.com/riwaq/riwaq-go/value"
)

// Predicate is a node of a filter tree.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - And: all children must hold
//   - Or: at least one child must hold
//   - any Condition: a leaf on a single column
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Condition is a leaf predicate on a single column.
//
// Semantics of each leaf (as rendered by querysql):
//
//	Eq         <col> = <value>
//	Ne         <col> <> <value>
//	Gt/Gte     <col> > <value>   /  <col> >= <value>
//	Lt/Lte     <col> < <value>   /  <col> <= <value>
//	In/Nin     <col> in (<v1>, <v2>, ...)
//	Between    <col> between (<start>, <end>)
//	Like       <col> like <pattern>       (pattern inserted verbatim)
//	IsNull     <col> IS NULL
//	IsNotNull  <col> IS NOT NULL
type Condition interface {
	Predicate
	Column() string
	conditionNode()
}

// Eq matches rows where Column equals Value.
type Eq struct {
	Col   string
	Value value.Value
}

// Ne matches rows where Column differs from Value.
type Ne struct {
	Col   string
	Value value.Value
}

// Gt matches rows where Column is greater than Value.
type Gt struct {
	Col   string
	Value value.Value
}

// Gte matches rows where Column is greater than or equal to Value.
type Gte struct {
	Col   string
	Value value.Value
}

// Lt matches rows where Column is less than Value.
type Lt struct {
	Col   string
	Value value.Value
}

// Lte matches rows where Column is less than or equal to Value.
type Lte struct {
	Col   string
	Value value.Value
}

// In matches rows where Column is one of Values.
type In struct {
	Col    string
	Values []value.Value
}

// Nin matches rows where Column is none of Values.
type Nin struct {
	Col    string
	Values []value.Value
}

// Between matches rows where Column lies in [Start, End].
type Between struct {
	Col   string
	Start value.Value
	End   value.Value
}

// Like matches Column against Pattern. The pattern is raw SQL: the caller
// supplies the quotes, e.g. Like{Col: "name", Pattern: "'jo%'"}.
type Like struct {
	Col     string
	Pattern string
}

// IsNull matches rows where Column is NULL.
type IsNull struct {
	Col string
}

// IsNotNull matches rows where Column is not NULL.
type IsNotNull struct {
	Col string
}

func (c Eq) Column() string        { return c.Col }
func (c Ne) Column() string        { return c.Col }
func (c Gt) Column() string        { return c.Col }
func (c Gte) Column() string       { return c.Col }
func (c Lt) Column() string        { return c.Col }
func (c Lte) Column() string       { return c.Col }
func (c In) Column() string        { return c.Col }
func (c Nin) Column() string       { return c.Col }
func (c Between) Column() string   { return c.Col }
func (c Like) Column() string      { return c.Col }
func (c IsNull) Column() string    { return c.Col }
func (c IsNotNull) Column() string { return c.Col }

func (Eq) predicateNode()        {}
func (Ne) predicateNode()        {}
func (Gt) predicateNode()        {}
func (Gte) predicateNode()       {}
func (Lt) predicateNode()        {}
func (Lte) predicateNode()       {}
func (In) predicateNode()        {}
func (Nin) predicateNode()       {}
func (Between) predicateNode()   {}
func (Like) predicateNode()      {}
func (IsNull) predicateNode()    {}
func (IsNotNull) predicateNode() {}

func (Eq) conditionNode()        {}
func (Ne) conditionNode()        {}
func (Gt) conditionNode()        {}
func (Gte) conditionNode()       {}
func (Lt) conditionNode()        {}
func (Lte) conditionNode()       {}
func (In) conditionNode()        {}
func (Nin) conditionNode()       {}
func (Between) conditionNode()   {}
func (Like) conditionNode()      {}
func (IsNull) conditionNode()    {}
func (IsNotNull) conditionNode() {}

// And represents a conjunction of predicates.
//
// Renders as "(p1 AND p2 AND ...)". An empty And renders as "()", which no
// SQL engine accepts; callers should not build one.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates.
//
// Renders as "(p1 OR p2 OR ...)". Same empty-list caveat as And.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// AllOf combines predicates with a logical AND.
func AllOf(preds ...Predicate) And {
	return And{Predicates: slices.Clone(preds)}
}

// AnyOf combines predicates with a logical OR.
func AnyOf(preds ...Predicate) Or {
	return Or{Predicates: slices.Clone(preds)}
}
