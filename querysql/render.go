// Package querysql renders queryir trees and statements to SQL text.
//
// Rendering is total: every input produces a string and there is no error
// path. Values are inlined as literals (no placeholders), so this package is
// solely responsible for escaping them.
package querysql

import (
	"strings"

	"github.com/riwaq/riwaq-go/queryir"
	"github.com/riwaq/riwaq-go/value"
)

// Renderer renders queryir structures to SQL text.
// The zero value is ready to use and produces the legacy-compatible output.
type Renderer struct {
	// StrictNotIn renders Nin as "<col> not in (...)".
	//
	// When false (the default), Nin renders exactly like In. Hosts deployed
	// against the historical output depend on that string, so the negation
	// is opt-in.
	StrictNotIn bool
}

var defaultRenderer = Renderer{}

// Literal renders a value as a SQL literal using the default renderer.
func Literal(v value.Value) string { return defaultRenderer.Literal(v) }

// Condition renders a single leaf using the default renderer.
func Condition(c queryir.Condition) string { return defaultRenderer.Condition(c) }

// Predicate renders a filter tree using the default renderer.
func Predicate(p queryir.Predicate) string { return defaultRenderer.Predicate(p) }

// Select renders a SELECT statement using the default renderer.
func Select(s queryir.Select) string { return defaultRenderer.Select(s) }

// Update renders an UPDATE statement using the default renderer.
func Update(u queryir.Update) string { return defaultRenderer.Update(u) }

// Render renders any request using the default renderer.
func Render(r queryir.Request) string { return defaultRenderer.Render(r) }

// Literal renders a value as a SQL literal.
//
//	Null    NULL
//	Bool    true / false
//	Number  its textual form, unchanged
//	String  '...' with \ escaped to \\ and ' escaped to \'
//	Array   ( v1, v2 )             - always parenthesized; empty is "(  )"
//	Object  ( v1 AS k1, v2 AS k2 ) - in the object's order
func (r Renderer) Literal(v value.Value) string {
	var b strings.Builder
	r.writeLiteral(&b, v)
	return b.String()
}

func (r Renderer) writeLiteral(b *strings.Builder, v value.Value) {
	switch val := v.(type) {
	case nil, value.Null:
		b.WriteString("NULL")
	case value.Bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.Number:
		b.WriteString(string(val))
	case value.String:
		writeQuoted(b, string(val))
	case value.Array:
		b.WriteString("( ")
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			r.writeLiteral(b, elem)
		}
		b.WriteString(" )")
	case value.Object:
		b.WriteString("( ")
		for i, p := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			r.writeLiteral(b, p.Value)
			b.WriteString(" AS ")
			b.WriteString(p.Key)
		}
		b.WriteString(" )")
	}
}

// writeQuoted escapes backslashes before quotes, so a backslash that
// precedes a quote becomes \\\' and never swallows the quote's escape.
func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('\'')
}

// Condition renders a single leaf.
func (r Renderer) Condition(c queryir.Condition) string {
	var b strings.Builder
	r.writeCondition(&b, c)
	return b.String()
}

func (r Renderer) writeCondition(b *strings.Builder, c queryir.Condition) {
	switch leaf := c.(type) {
	case queryir.Eq:
		r.writeBinary(b, leaf.Col, "=", leaf.Value)
	case queryir.Ne:
		r.writeBinary(b, leaf.Col, "<>", leaf.Value)
	case queryir.Gt:
		r.writeBinary(b, leaf.Col, ">", leaf.Value)
	case queryir.Gte:
		r.writeBinary(b, leaf.Col, ">=", leaf.Value)
	case queryir.Lt:
		r.writeBinary(b, leaf.Col, "<", leaf.Value)
	case queryir.Lte:
		r.writeBinary(b, leaf.Col, "<=", leaf.Value)
	case queryir.In:
		r.writeList(b, leaf.Col, "in", leaf.Values)
	case queryir.Nin:
		op := "in"
		if r.StrictNotIn {
			op = "not in"
		}
		r.writeList(b, leaf.Col, op, leaf.Values)
	case queryir.Between:
		b.WriteString(leaf.Col)
		b.WriteString(" between (")
		r.writeLiteral(b, leaf.Start)
		b.WriteString(", ")
		r.writeLiteral(b, leaf.End)
		b.WriteByte(')')
	case queryir.Like:
		b.WriteString(leaf.Col)
		b.WriteString(" like ")
		b.WriteString(leaf.Pattern)
	case queryir.IsNull:
		b.WriteString(leaf.Col)
		b.WriteString(" IS NULL")
	case queryir.IsNotNull:
		b.WriteString(leaf.Col)
		b.WriteString(" IS NOT NULL")
	}
}

func (r Renderer) writeBinary(b *strings.Builder, col, op string, v value.Value) {
	b.WriteString(col)
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteByte(' ')
	r.writeLiteral(b, v)
}

func (r Renderer) writeList(b *strings.Builder, col, op string, vs []value.Value) {
	b.WriteString(col)
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteString(" (")
	for i, v := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		r.writeLiteral(b, v)
	}
	b.WriteByte(')')
}

// Predicate renders a filter tree. And / Or are parenthesized with their
// children joined by " AND " / " OR "; a leaf renders without parentheses.
// A nil tree renders as "".
func (r Renderer) Predicate(p queryir.Predicate) string {
	var b strings.Builder
	r.writePredicate(&b, p)
	return b.String()
}

func (r Renderer) writePredicate(b *strings.Builder, p queryir.Predicate) {
	switch pred := p.(type) {
	case queryir.And:
		r.writeGroup(b, pred.Predicates, " AND ")
	case queryir.Or:
		r.writeGroup(b, pred.Predicates, " OR ")
	case queryir.Condition:
		r.writeCondition(b, pred)
	}
}

func (r Renderer) writeGroup(b *strings.Builder, preds []queryir.Predicate, sep string) {
	b.WriteByte('(')
	for i, child := range preds {
		if i > 0 {
			b.WriteString(sep)
		}
		r.writePredicate(b, child)
	}
	b.WriteByte(')')
}

// Select renders "SELECT <cols> FROM <tbl>[ WHERE <filter>];".
// Columns are joined verbatim; the WHERE clause is omitted without a filter.
func (r Renderer) Select(s queryir.Select) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.Table)
	r.writeWhere(&b, s.Filter)
	b.WriteByte(';')
	return b.String()
}

// Update renders "UPDATE <tbl> SET <c1> = <v1>, ...[ WHERE <filter>];".
func (r Renderer) Update(u queryir.Update) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(u.Table)
	b.WriteString(" SET ")
	for i, p := range u.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		r.writeBinary(&b, p.Key, "=", p.Value)
	}
	r.writeWhere(&b, u.Filter)
	b.WriteByte(';')
	return b.String()
}

func (r Renderer) writeWhere(b *strings.Builder, p queryir.Predicate) {
	if p == nil {
		return
	}
	b.WriteString(" WHERE ")
	r.writePredicate(b, p)
}

// Render renders any request. Unknown or nil requests render as "".
func (r Renderer) Render(req queryir.Request) string {
	switch stmt := req.(type) {
	case queryir.Select:
		return r.Select(stmt)
	case *queryir.Select:
		if stmt != nil {
			return r.Select(*stmt)
		}
	case queryir.Update:
		return r.Update(stmt)
	case *queryir.Update:
		if stmt != nil {
			return r.Update(*stmt)
		}
	}
	return ""
}
