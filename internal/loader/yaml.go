package loader

import (
	"fmt"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/riwaq/riwaq-go/queryir"
	"github.com/riwaq/riwaq-go/value"
)

// yamlToJSON converts a YAML document to JSON through yaml.Node so that
// mapping keys keep their document order.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &LoadError{Code: ErrCodeParse, Message: "empty YAML document"}
	}

	return NodeToJSON(doc.Content[0])
}

// NodeToJSON converts an already parsed YAML node to JSON, keeping mapping
// order. Documents that embed requests, such as test scenarios, use it to
// hand a sub-tree to the loader.
func NodeToJSON(n *yaml.Node) ([]byte, error) {
	v, err := nodeValue(n)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error()}
	}
	return value.Marshal(v)
}

// LoadNode validates and decodes a request held in a YAML node.
func LoadNode(n *yaml.Node) (queryir.Request, error) {
	doc, err := NodeToJSON(n)
	if err != nil {
		return nil, err
	}
	return loadJSON(cuecontext.New(), doc)
}

// nodeValue converts a YAML node to a Value. Scalars are typed by their
// resolved tag.
func nodeValue(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null{}, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		arr := make(value.Array, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := nodeValue(child)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := value.Object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			v, err := nodeValue(valNode)
			if err != nil {
				return nil, err
			}
			obj = obj.With(keyNode.Value, v)
		}
		return obj, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func scalarValue(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			var u uint64
			if uerr := n.Decode(&u); uerr != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return value.Uint(u), nil
		}
		return value.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.Float(f), nil
	default:
		return value.String(n.Value), nil
	}
}
