package loader

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// Validate checks a JSON envelope against the request schema.
func Validate(doc []byte) error {
	return validate(cuecontext.New(), doc)
}

func validate(ctx *cue.Context, doc []byte) error {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("request schema: %w", err)
	}

	expr, err := cuejson.Extract("request.json", doc)
	if err != nil {
		return &LoadError{Code: ErrCodeParse, Message: err.Error(), Pos: firstPos(err)}
	}
	v := ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return &LoadError{Code: ErrCodeParse, Message: err.Error(), Pos: firstPos(err)}
	}

	unified := schema.LookupPath(cue.ParsePath("#Request")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &LoadError{Code: ErrCodeSchema, Message: cueerrors.Details(err, nil)}
	}
	return nil
}

// cueToJSON evaluates a CUE document and exports it as JSON. Field order
// follows declaration order.
func cueToJSON(ctx *cue.Context, path string, data []byte) ([]byte, error) {
	name := path
	if name == "" {
		name = "request.cue"
	}
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error(), Pos: firstPos(err)}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeNotConcrete, Message: err.Error(), Pos: firstPos(err)}
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotConcrete, Message: err.Error(), Pos: firstPos(err)}
	}
	return out, nil
}

func firstPos(err error) token.Pos {
	for _, e := range cueerrors.Errors(err) {
		if pos := e.Position(); pos.IsValid() {
			return pos
		}
	}
	return token.NoPos
}
