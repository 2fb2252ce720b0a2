// Package document converts YAML documents to icelock inputs and back.
//
// Mappings become records (icelock.Fields) when every key is a string,
// and maps (icelock.Pairs) when tagged !map or keyed by non-strings.
// Mappings tagged !!set become sets (icelock.Members). Sequences become
// []any and scalars resolve to bool, int, float64, string or nil.
package document

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phroun/icelock"
)

const (
	tagMap = "!map"
	tagSet = "!!set"
	tagStr = "!!str"
)

// ErrCyclicAlias indicates an alias that refers to one of its own ancestors.
var ErrCyclicAlias = errors.New("alias refers to an enclosing node")

// Load reads and decodes the YAML file at path.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Decode parses one YAML document. An empty document decodes to nil.
func Decode(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, nil
	}
	d := decoder{active: make(map[*yaml.Node]bool)}
	return d.node(&root)
}

type decoder struct {
	active map[*yaml.Node]bool
}

func (d *decoder) node(n *yaml.Node) (any, error) {
	if d.active[n] {
		return nil, fmt.Errorf("line %d: %w", n.Line, ErrCyclicAlias)
	}
	d.active[n] = true
	defer delete(d.active, n)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.node(n.Content[0])

	case yaml.AliasNode:
		return d.node(n.Alias)

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.node(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		return d.mapping(n)
	}
	return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

func (d *decoder) mapping(n *yaml.Node) (any, error) {
	switch n.Tag {
	case tagSet:
		out := make(icelock.Members, 0, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			v, err := d.node(n.Content[i])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case tagMap:
		return d.pairs(n)
	}

	for i := 0; i < len(n.Content); i += 2 {
		if k := n.Content[i]; k.Kind != yaml.ScalarNode || k.Tag != tagStr {
			return d.pairs(n)
		}
	}
	out := make(icelock.Fields, 0, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		v, err := d.node(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, icelock.Field{Key: n.Content[i].Value, Value: v})
	}
	return out, nil
}

func (d *decoder) pairs(n *yaml.Node) (any, error) {
	out := make(icelock.Pairs, 0, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		k, err := d.node(n.Content[i])
		if err != nil {
			return nil, err
		}
		v, err := d.node(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, icelock.Pair{Key: k, Value: v})
	}
	return out, nil
}

// Encode renders v, typically a view, as YAML. Record order is kept, maps
// are tagged !map and sets !!set so the output decodes back to the same
// kinds.
func Encode(v any) ([]byte, error) {
	plain, err := icelock.Clone(v)
	if err != nil {
		return nil, err
	}
	n, err := encodeNode(plain)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func encodeNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case icelock.Fields:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range t {
			val, err := encodeNode(f.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: f.Key}, val)
		}
		return n, nil

	case icelock.Pairs:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: tagMap}
		for _, p := range t {
			key, err := encodeNode(p.Key)
			if err != nil {
				return nil, err
			}
			val, err := encodeNode(p.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, key, val)
		}
		return n, nil

	case icelock.Members:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: tagSet}
		for _, m := range t {
			key, err := encodeNode(m)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"})
		}
		return n, nil

	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range t {
			c, err := encodeNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}
