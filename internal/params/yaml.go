package params

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes the values of n as a YAML mapping keyed by node names.
func WriteYAML(w io.Writer, n *Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ToYAML(n)); err != nil {
		return err
	}
	return enc.Close()
}

// ReadYAML parses a tree written by WriteYAML. Numbers written without a
// fraction load as ints; Merge accepts them for float parameters.
func ReadYAML(r io.Reader) (*Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Group(""), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return FromYAML(&doc)
}

// FromYAML converts an already parsed YAML mapping, e.g. a parameter tree
// embedded in a larger document, into a tree.
func FromYAML(y *yaml.Node) (*Node, error) {
	if y == nil {
		return Group(""), nil
	}
	if y.Kind == yaml.DocumentNode {
		if len(y.Content) == 0 {
			return Group(""), nil
		}
		y = y.Content[0]
	}
	if y.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: parameters must be a mapping (line %d)", ErrInvalidDocument, y.Line)
	}
	return fromYAML("", y)
}

// ToYAML converts the values of n into a YAML mapping node.
func ToYAML(n *Node) *yaml.Node {
	switch n.Kind {
	case KindGroup:
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range n.Children {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Name()},
				ToYAML(c))
		}
		return m
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(n.Number)}
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(n.Number))}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(n.Flag)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Choice}
	}
}

func fromYAML(name string, y *yaml.Node) (*Node, error) {
	key, id := ParseName(name)
	switch y.Kind {
	case yaml.MappingNode:
		g := Group(key).WithID(id)
		for i := 0; i+1 < len(y.Content); i += 2 {
			c, err := fromYAML(y.Content[i].Value, y.Content[i+1])
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, c)
		}
		return g, nil
	case yaml.ScalarNode:
		n, err := scalar(key, y.ShortTag(), y.Value)
		if err != nil {
			return nil, err
		}
		return n.WithID(id), nil
	}
	return nil, fmt.Errorf("%w: unsupported YAML node at %q (line %d)", ErrInvalidDocument, name, y.Line)
}

func scalar(key, tag, value string) (*Node, error) {
	switch tag {
	case "!!int":
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, key, err)
		}
		return Int(key, int(v)), nil
	case "!!float":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, key, err)
		}
		return Float(key, v), nil
	case "!!bool":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, key, err)
		}
		return Bool(key, v), nil
	case "!!str":
		return Choice(key, value), nil
	}
	return nil, fmt.Errorf("%w: %s has unsupported tag %s", ErrInvalidDocument, key, tag)
}

// formatFloat prints the shortest representation that parses back to v and
// always reads as a float.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
