package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/riwaq/riwaq-go/queryir"
)

// Format identifies a document's source syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// Error codes for load failures.
const (
	ErrCodeRead        = "E201" // File could not be read
	ErrCodeFormat      = "E202" // Unsupported file extension
	ErrCodeParse       = "E203" // Source syntax error
	ErrCodeSchema      = "E204" // Document violates the request schema
	ErrCodeDecode      = "E205" // Document could not be decoded to a request
	ErrCodeNotConcrete = "E206" // CUE value is incomplete
)

// LoadError describes a document that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the load error code carried by err, or "".
func ErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeFormat,
			Message: fmt.Sprintf("unsupported extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path)),
			Path:    path,
		}
	}
}

// LoadFile reads, validates and decodes the request document at path.
func LoadFile(path string) (queryir.Request, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: err.Error(), Path: path}
	}
	req, err := load(cuecontext.New(), path, data, format)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Path == "" {
			le.Path = path
		}
		return nil, err
	}
	return req, nil
}

// Load validates and decodes a request document held in memory.
func Load(data []byte, format Format) (queryir.Request, error) {
	return load(cuecontext.New(), "", data, format)
}

// ToJSON normalizes a document to its JSON envelope without validating it.
func ToJSON(data []byte, format Format) ([]byte, error) {
	return toJSON(cuecontext.New(), "", data, format)
}

func load(ctx *cue.Context, path string, data []byte, format Format) (queryir.Request, error) {
	doc, err := toJSON(ctx, path, data, format)
	if err != nil {
		return nil, err
	}
	return loadJSON(ctx, doc)
}

func loadJSON(ctx *cue.Context, doc []byte) (queryir.Request, error) {
	if err := validate(ctx, doc); err != nil {
		return nil, err
	}
	req, err := queryir.UnmarshalRequest(doc)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	return req, nil
}

func toJSON(ctx *cue.Context, path string, data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		return yamlToJSON(data)
	case FormatCUE:
		return cueToJSON(ctx, path, data)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported format %q", format)}
	}
}
