package queryir

// AndWith merges c into root with a logical AND.
//
// Dispatch on the current root:
//   - nil:  c alone
//   - And:  c appended as a new child of the same And (stays flat)
//   - Or:   And{root, c} - the Or is wrapped, never flattened into
//   - leaf: And{root, c}
func AndWith(root Predicate, c Condition) Predicate {
	switch r := root.(type) {
	case nil:
		return c
	case And:
		return And{Predicates: extend(r.Predicates, c)}
	default:
		return And{Predicates: []Predicate{r, c}}
	}
}

// OrWith merges c into root with a logical OR.
// Mirror image of AndWith: an Or root grows flat, anything else is wrapped.
func OrWith(root Predicate, c Condition) Predicate {
	switch r := root.(type) {
	case nil:
		return c
	case Or:
		return Or{Predicates: extend(r.Predicates, c)}
	default:
		return Or{Predicates: []Predicate{r, c}}
	}
}

// AndAll merges a batch of conditions into root with a logical AND in one
// rebuild. A nil root yields And over the batch, even for a single or empty
// batch.
func AndAll(root Predicate, cs ...Condition) Predicate {
	switch r := root.(type) {
	case nil:
		return And{Predicates: extend(nil, cs...)}
	case And:
		return And{Predicates: extend(r.Predicates, cs...)}
	default:
		return And{Predicates: extend([]Predicate{r}, cs...)}
	}
}

// OrAny merges a batch of conditions into root with a logical OR in one
// rebuild. A nil root yields Or over the batch.
func OrAny(root Predicate, cs ...Condition) Predicate {
	switch r := root.(type) {
	case nil:
		return Or{Predicates: extend(nil, cs...)}
	case Or:
		return Or{Predicates: extend(r.Predicates, cs...)}
	default:
		return Or{Predicates: extend([]Predicate{r}, cs...)}
	}
}

// extend returns a fresh slice holding base followed by cs.
// base is never appended to in place, so trees built from the same parent
// never share a backing array.
func extend(base []Predicate, cs ...Condition) []Predicate {
	out := make([]Predicate, 0, len(base)+len(cs))
	out = append(out, base...)
	for _, c := range cs {
		out = append(out, c)
	}
	return out
}
