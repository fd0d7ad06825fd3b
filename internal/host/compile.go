package host

import (
	"fmt"
	"strings"

	"github.com/riwaq/riwaq-go/queryir"
	"github.com/riwaq/riwaq-go/value"
)

// compiler turns a decoded request into parameterized SQL for SQLite.
//
// The guest's rendered text escapes quotes with backslashes and writes
// "between (a, b)", neither of which SQLite accepts, so the host never runs
// it. Values are always bound as parameters; column and table names and
// Like patterns are emitted verbatim.
type compiler struct {
	strictNotIn bool
}

// compile converts a request to (sql, args).
func (c compiler) compile(req queryir.Request) (string, []any, error) {
	switch r := req.(type) {
	case queryir.Select:
		return c.compileSelect(r)
	case *queryir.Select:
		if r != nil {
			return c.compileSelect(*r)
		}
	case queryir.Update:
		return c.compileUpdate(r)
	case *queryir.Update:
		if r != nil {
			return c.compileUpdate(*r)
		}
	default:
		return "", nil, fmt.Errorf("unsupported request type: %T", req)
	}
	return "", nil, fmt.Errorf("cannot compile nil request")
}

func (c compiler) compileSelect(s queryir.Select) (string, []any, error) {
	if len(s.Columns) == 0 {
		return "", nil, fmt.Errorf("select from %s has no columns", s.Table)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.Table)

	args, err := c.compileWhere(&b, s.Filter)
	if err != nil {
		return "", nil, err
	}
	return b.String(), args, nil
}

func (c compiler) compileUpdate(u queryir.Update) (string, []any, error) {
	if len(u.Values) == 0 {
		return "", nil, fmt.Errorf("update of %s sets no columns", u.Table)
	}

	var b strings.Builder
	var args []any
	b.WriteString("UPDATE ")
	b.WriteString(u.Table)
	b.WriteString(" SET ")
	for i, p := range u.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Key)
		b.WriteString(" = ")
		var err error
		if args, err = c.compileValue(&b, args, p.Value); err != nil {
			return "", nil, fmt.Errorf("set %s: %w", p.Key, err)
		}
	}

	where, err := c.compileWhere(&b, u.Filter)
	if err != nil {
		return "", nil, err
	}
	return b.String(), append(args, where...), nil
}

func (c compiler) compileWhere(b *strings.Builder, p queryir.Predicate) ([]any, error) {
	if p == nil {
		return nil, nil
	}
	b.WriteString(" WHERE ")
	args, err := c.compilePredicate(b, nil, p)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return args, nil
}

// compilePredicate appends p to b and its parameters to args.
func (c compiler) compilePredicate(b *strings.Builder, args []any, p queryir.Predicate) ([]any, error) {
	switch pred := p.(type) {
	case queryir.And:
		return c.compileGroup(b, args, pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileGroup(b, args, pred.Predicates, " OR ", "1 = 0")
	case queryir.Condition:
		return c.compileCondition(b, args, pred)
	case nil:
		return nil, fmt.Errorf("nil predicate")
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileGroup writes "(p1 <sep> p2 ...)". An empty group is vacuous and
// compiles to empty.
func (c compiler) compileGroup(b *strings.Builder, args []any, preds []queryir.Predicate, sep, empty string) ([]any, error) {
	if len(preds) == 0 {
		b.WriteString(empty)
		return args, nil
	}
	b.WriteByte('(')
	for i, child := range preds {
		if i > 0 {
			b.WriteString(sep)
		}
		var err error
		if args, err = c.compilePredicate(b, args, child); err != nil {
			return nil, err
		}
	}
	b.WriteByte(')')
	return args, nil
}

func (c compiler) compileCondition(b *strings.Builder, args []any, cond queryir.Condition) ([]any, error) {
	switch leaf := cond.(type) {
	case queryir.Eq:
		return c.compileBinary(b, args, leaf.Col, "=", leaf.Value)
	case queryir.Ne:
		return c.compileBinary(b, args, leaf.Col, "<>", leaf.Value)
	case queryir.Gt:
		return c.compileBinary(b, args, leaf.Col, ">", leaf.Value)
	case queryir.Gte:
		return c.compileBinary(b, args, leaf.Col, ">=", leaf.Value)
	case queryir.Lt:
		return c.compileBinary(b, args, leaf.Col, "<", leaf.Value)
	case queryir.Lte:
		return c.compileBinary(b, args, leaf.Col, "<=", leaf.Value)
	case queryir.In:
		return c.compileList(b, args, leaf.Col, "IN", leaf.Values)
	case queryir.Nin:
		op := "IN"
		if c.strictNotIn {
			op = "NOT IN"
		}
		return c.compileList(b, args, leaf.Col, op, leaf.Values)
	case queryir.Between:
		b.WriteString(leaf.Col)
		b.WriteString(" BETWEEN ")
		args, err := c.compileValue(b, args, leaf.Start)
		if err != nil {
			return nil, fmt.Errorf("between on %s: %w", leaf.Col, err)
		}
		b.WriteString(" AND ")
		if args, err = c.compileValue(b, args, leaf.End); err != nil {
			return nil, fmt.Errorf("between on %s: %w", leaf.Col, err)
		}
		return args, nil
	case queryir.Like:
		b.WriteString(leaf.Col)
		b.WriteString(" LIKE ")
		b.WriteString(leaf.Pattern)
		return args, nil
	case queryir.IsNull:
		b.WriteString(leaf.Col)
		b.WriteString(" IS NULL")
		return args, nil
	case queryir.IsNotNull:
		b.WriteString(leaf.Col)
		b.WriteString(" IS NOT NULL")
		return args, nil
	default:
		return nil, fmt.Errorf("unsupported condition type: %T", cond)
	}
}

func (c compiler) compileBinary(b *strings.Builder, args []any, col, op string, v value.Value) ([]any, error) {
	b.WriteString(col)
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteByte(' ')
	args, err := c.compileValue(b, args, v)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", op, col, err)
	}
	return args, nil
}

func (c compiler) compileList(b *strings.Builder, args []any, col, op string, vs []value.Value) ([]any, error) {
	b.WriteString(col)
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteString(" (")
	for i, v := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		var err error
		if args, err = c.compileValue(b, args, v); err != nil {
			return nil, fmt.Errorf("%s on %s: %w", op, col, err)
		}
	}
	b.WriteByte(')')
	return args, nil
}

// compileValue binds v. An Array becomes a row value of placeholders; an
// Object is bound as its JSON text.
func (c compiler) compileValue(b *strings.Builder, args []any, v value.Value) ([]any, error) {
	if arr, ok := v.(value.Array); ok {
		b.WriteByte('(')
		for i, elem := range arr {
			if i > 0 {
				b.WriteString(", ")
			}
			var err error
			if args, err = c.compileValue(b, args, elem); err != nil {
				return nil, err
			}
		}
		b.WriteByte(')')
		return args, nil
	}

	param, err := valueToParam(v)
	if err != nil {
		return nil, err
	}
	b.WriteByte('?')
	return append(args, param), nil
}

// valueToParam converts a scalar Value to a driver parameter.
func valueToParam(v value.Value) (any, error) {
	switch val := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.Bool:
		return bool(val), nil
	case value.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", string(val), err)
		}
		return f, nil
	case value.String:
		return string(val), nil
	case value.Object:
		data, err := value.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
