package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/riwaq/riwaq-go/value"
)

// Leaf tags of the wire format. A leaf inside a tree is wrapped as
// {"Filter": {"<tag>": {...}}}; combinators encode as {"And": [...]} and
// {"Or": [...]}.
const (
	tagEq        = "Eq"
	tagNe        = "Ne"
	tagIn        = "In"
	tagNin       = "Nin"
	tagGt        = "Gt"
	tagGte       = "Gte"
	tagLt        = "Lt"
	tagLte       = "Lte"
	tagBetween   = "Between"
	tagLike      = "Like"
	tagIsNull    = "IsNull"
	tagIsNotNull = "IsNotNull"

	tagAnd    = "And"
	tagOr     = "Or"
	tagFilter = "Filter"
)

// leafBody is the union of all leaf payload fields.
type leafBody struct {
	Col    *string         `json:"col"`
	Value  json.RawMessage `json:"value,omitempty"`
	Values json.RawMessage `json:"values,omitempty"`
	Start  json.RawMessage `json:"start,omitempty"`
	End    json.RawMessage `json:"end,omitempty"`
	Expr   *string         `json:"expr,omitempty"`
}

// MarshalRequest encodes a request as its JSON envelope.
func MarshalRequest(r Request) ([]byte, error) {
	switch req := r.(type) {
	case Select:
		return req.MarshalJSON()
	case Update:
		return req.MarshalJSON()
	case *Select:
		if req == nil {
			return nil, fmt.Errorf("cannot marshal nil request")
		}
		return req.MarshalJSON()
	case *Update:
		if req == nil {
			return nil, fmt.Errorf("cannot marshal nil request")
		}
		return req.MarshalJSON()
	case nil:
		return nil, fmt.Errorf("cannot marshal nil request")
	default:
		return nil, fmt.Errorf("unsupported request type: %T", r)
	}
}

// UnmarshalRequest decodes a JSON envelope, dispatching on its "op" field.
func UnmarshalRequest(data []byte) (Request, error) {
	var head struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	switch head.Op {
	case OpSelect:
		var s Select
		if err := s.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return s, nil
	case OpUpdate:
		var u Update
		if err := u.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return u, nil
	case "":
		return nil, fmt.Errorf("decode request: missing op")
	default:
		return nil, fmt.Errorf("decode request: unknown op %q", head.Op)
	}
}

type selectWire struct {
	Op     string          `json:"op"`
	Tbl    string          `json:"tbl"`
	Cols   []string        `json:"cols"`
	Filter json.RawMessage `json:"filter"`
}

// MarshalJSON implements json.Marshaler for Select.
func (s Select) MarshalJSON() ([]byte, error) {
	filter, err := MarshalPredicate(s.Filter)
	if err != nil {
		return nil, fmt.Errorf("select filter: %w", err)
	}
	cols := s.Columns
	if cols == nil {
		cols = []string{}
	}
	return json.Marshal(selectWire{Op: OpSelect, Tbl: s.Table, Cols: cols, Filter: filter})
}

// UnmarshalJSON implements json.Unmarshaler for Select.
func (s *Select) UnmarshalJSON(data []byte) error {
	var w selectWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode select: %w", err)
	}
	if w.Op != "" && w.Op != OpSelect {
		return fmt.Errorf("decode select: op is %q", w.Op)
	}
	filter, err := UnmarshalPredicate(w.Filter)
	if err != nil {
		return fmt.Errorf("decode select filter: %w", err)
	}
	*s = Select{Table: w.Tbl, Columns: w.Cols, Filter: filter}
	return nil
}

type updateWire struct {
	Op     string          `json:"op"`
	Tbl    string          `json:"tbl"`
	Values json.RawMessage `json:"values"`
	Filter json.RawMessage `json:"filter"`
}

// MarshalJSON implements json.Marshaler for Update.
func (u Update) MarshalJSON() ([]byte, error) {
	filter, err := MarshalPredicate(u.Filter)
	if err != nil {
		return nil, fmt.Errorf("update filter: %w", err)
	}
	values, err := u.Values.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("update values: %w", err)
	}
	return json.Marshal(updateWire{Op: OpUpdate, Tbl: u.Table, Values: values, Filter: filter})
}

// UnmarshalJSON implements json.Unmarshaler for Update.
func (u *Update) UnmarshalJSON(data []byte) error {
	var w updateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode update: %w", err)
	}
	if w.Op != "" && w.Op != OpUpdate {
		return fmt.Errorf("decode update: op is %q", w.Op)
	}

	var values value.Object
	if !isNull(w.Values) {
		if err := values.UnmarshalJSON(w.Values); err != nil {
			return fmt.Errorf("decode update values: %w", err)
		}
	}

	filter, err := UnmarshalPredicate(w.Filter)
	if err != nil {
		return fmt.Errorf("decode update filter: %w", err)
	}
	*u = Update{Table: w.Tbl, Values: values, Filter: filter}
	return nil
}

// MarshalPredicate encodes a filter tree. A nil tree encodes as null.
func MarshalPredicate(p Predicate) ([]byte, error) {
	switch pred := p.(type) {
	case nil:
		return []byte("null"), nil
	case And:
		return marshalGroup(tagAnd, pred.Predicates)
	case Or:
		return marshalGroup(tagOr, pred.Predicates)
	case Condition:
		leaf, err := MarshalCondition(pred)
		if err != nil {
			return nil, err
		}
		return wrap(tagFilter, leaf), nil
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func marshalGroup(tag string, preds []Predicate) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, child := range preds {
		if i > 0 {
			buf.WriteByte(',')
		}
		if child == nil {
			return nil, fmt.Errorf("%s[%d]: nil predicate", tag, i)
		}
		b, err := MarshalPredicate(child)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", tag, i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return wrap(tag, buf.Bytes()), nil
}

// MarshalCondition encodes a single leaf as {"<tag>": {...}}.
func MarshalCondition(c Condition) ([]byte, error) {
	var (
		tag  string
		body leafBody
		err  error
	)

	switch leaf := c.(type) {
	case Eq:
		tag = tagEq
		body.Value, err = encode(leaf.Value)
	case Ne:
		tag = tagNe
		body.Value, err = encode(leaf.Value)
	case Gt:
		tag = tagGt
		body.Value, err = encode(leaf.Value)
	case Gte:
		tag = tagGte
		body.Value, err = encode(leaf.Value)
	case Lt:
		tag = tagLt
		body.Value, err = encode(leaf.Value)
	case Lte:
		tag = tagLte
		body.Value, err = encode(leaf.Value)
	case In:
		tag = tagIn
		body.Values, err = encodeList(leaf.Values)
	case Nin:
		tag = tagNin
		body.Values, err = encodeList(leaf.Values)
	case Between:
		tag = tagBetween
		if body.Start, err = encode(leaf.Start); err == nil {
			body.End, err = encode(leaf.End)
		}
	case Like:
		tag = tagLike
		expr := leaf.Pattern
		body.Expr = &expr
	case IsNull:
		tag = tagIsNull
	case IsNotNull:
		tag = tagIsNotNull
	case nil:
		return nil, fmt.Errorf("cannot marshal nil condition")
	default:
		return nil, fmt.Errorf("unsupported condition type: %T", c)
	}
	col := c.Column()
	body.Col = &col
	if err != nil {
		return nil, fmt.Errorf("%s on %q: %w", tag, col, err)
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return wrap(tag, b), nil
}

func encode(v value.Value) ([]byte, error) {
	return value.Marshal(v)
}

func encodeList(vs []value.Value) ([]byte, error) {
	return value.Array(vs).MarshalJSON()
}

func wrap(tag string, body []byte) []byte {
	out := make([]byte, 0, len(tag)+len(body)+5)
	out = append(out, `{"`...)
	out = append(out, tag...)
	out = append(out, `":`...)
	out = append(out, body...)
	return append(out, '}')
}

// UnmarshalPredicate decodes a filter tree. null or empty input yields nil.
func UnmarshalPredicate(data []byte) (Predicate, error) {
	if isNull(data) {
		return nil, nil
	}
	tag, body, err := single(data)
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagAnd, tagOr:
		var raw []json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		preds := make([]Predicate, len(raw))
		for i, child := range raw {
			if isNull(child) {
				return nil, fmt.Errorf("%s[%d]: null predicate", tag, i)
			}
			p, err := UnmarshalPredicate(child)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", tag, i, err)
			}
			preds[i] = p
		}
		if tag == tagAnd {
			return And{Predicates: preds}, nil
		}
		return Or{Predicates: preds}, nil
	case tagFilter:
		return UnmarshalCondition(body)
	default:
		return nil, fmt.Errorf("unknown filter node %q", tag)
	}
}

// UnmarshalCondition decodes a single {"<tag>": {...}} leaf.
func UnmarshalCondition(data []byte) (Condition, error) {
	tag, raw, err := single(data)
	if err != nil {
		return nil, err
	}

	var body leafBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	if body.Col == nil {
		return nil, fmt.Errorf("%s: missing col", tag)
	}
	col := *body.Col

	switch tag {
	case tagEq, tagNe, tagGt, tagGte, tagLt, tagLte:
		v, err := decode(tag, "value", body.Value)
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagEq:
			return Eq{Col: col, Value: v}, nil
		case tagNe:
			return Ne{Col: col, Value: v}, nil
		case tagGt:
			return Gt{Col: col, Value: v}, nil
		case tagGte:
			return Gte{Col: col, Value: v}, nil
		case tagLt:
			return Lt{Col: col, Value: v}, nil
		default:
			return Lte{Col: col, Value: v}, nil
		}
	case tagIn, tagNin:
		v, err := decode(tag, "values", body.Values)
		if err != nil {
			return nil, err
		}
		arr, ok := v.(value.Array)
		if !ok {
			return nil, fmt.Errorf("%s.values: expected array", tag)
		}
		if tag == tagIn {
			return In{Col: col, Values: arr}, nil
		}
		return Nin{Col: col, Values: arr}, nil
	case tagBetween:
		start, err := decode(tag, "start", body.Start)
		if err != nil {
			return nil, err
		}
		end, err := decode(tag, "end", body.End)
		if err != nil {
			return nil, err
		}
		return Between{Col: col, Start: start, End: end}, nil
	case tagLike:
		if body.Expr == nil {
			return nil, fmt.Errorf("%s: missing expr", tag)
		}
		return Like{Col: col, Pattern: *body.Expr}, nil
	case tagIsNull:
		return IsNull{Col: col}, nil
	case tagIsNotNull:
		return IsNotNull{Col: col}, nil
	default:
		return nil, fmt.Errorf("unknown filter item %q", tag)
	}
}

func decode(tag, field string, raw json.RawMessage) (value.Value, error) {
	if raw == nil {
		return nil, fmt.Errorf("%s: missing %s", tag, field)
	}
	v, err := value.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", tag, field, err)
	}
	return v, nil
}

// single decodes an object that must hold exactly one key.
func single(data []byte) (string, json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, err
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("expected exactly one tag, got %d", len(m))
	}
	for k, v := range m {
		return k, v, nil
	}
	return "", nil, nil
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
