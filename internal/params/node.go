package params

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

type Kind int

const (
	KindGroup Kind = iota
	KindFloat
	KindInt
	KindBool
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindChoice:
		return "choice"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) numeric() bool { return k == KindFloat || k == KindInt }

// Node is either a group (KindGroup) with ordered children or a leaf value.
type Node struct {
	Key   string
	Label string
	ID    string
	Kind  Kind

	Number float64
	Flag   bool
	Choice string

	Options []string
	// Min and Max bound numeric leaves when Bounded is set.
	Min, Max float64
	Bounded  bool
	Step     float64

	Children []*Node
}

func Group(key string, children ...*Node) *Node {
	return &Node{Key: key, Kind: KindGroup, Children: children}
}

func Float(key string, v float64) *Node {
	return &Node{Key: key, Kind: KindFloat, Number: v}
}

func Int(key string, v int) *Node {
	return &Node{Key: key, Kind: KindInt, Number: float64(v)}
}

func Bool(key string, v bool) *Node {
	return &Node{Key: key, Kind: KindBool, Flag: v}
}

func Choice(key, v string, options ...string) *Node {
	return &Node{Key: key, Kind: KindChoice, Choice: v, Options: options}
}

func (n *Node) WithLabel(label string) *Node {
	n.Label = label
	return n
}

func (n *Node) WithID(id string) *Node {
	n.ID = id
	return n
}

func (n *Node) WithRange(min, max, step float64) *Node {
	n.Min, n.Max, n.Step, n.Bounded = min, max, step, true
	return n
}

// Name is the sibling-unique address of n: key, or key[id] when n has an id.
func (n *Node) Name() string {
	if n.ID == "" {
		return n.Key
	}
	return n.Key + "[" + n.ID + "]"
}

// DisplayLabel is the label shown to users; it falls back to the key.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	if n.Key == "" {
		return ""
	}
	return strings.ToUpper(n.Key[:1]) + n.Key[1:]
}

// ParseName splits "key[id]" into its parts.
func ParseName(name string) (key, id string) {
	if i := strings.IndexByte(name, '['); i > 0 && strings.HasSuffix(name, "]") {
		return name[:i], name[i+1 : len(name)-1]
	}
	return name, ""
}

// Child returns the direct child addressed by key and id, or nil.
func (n *Node) Child(key, id string) *Node {
	for _, c := range n.Children {
		if c.Key == key && c.ID == id {
			return c
		}
	}
	return nil
}

// Lookup resolves a slash-separated path of names, e.g. "pid[avoid]/kp".
func (n *Node) Lookup(path string) (*Node, error) {
	cur := n
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		key, id := ParseName(part)
		next := cur.Child(key, id)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, path)
		}
		cur = next
	}
	return cur, nil
}

func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Options = slices.Clone(n.Options)
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// Value returns the leaf value as float64, int, bool or string; nil for groups.
func (n *Node) Value() any {
	switch n.Kind {
	case KindFloat:
		return n.Number
	case KindInt:
		return int(n.Number)
	case KindBool:
		return n.Flag
	case KindChoice:
		return n.Choice
	}
	return nil
}

// Values flattens the leaves of n into a map keyed by path.
func (n *Node) Values() map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, node *Node)
	walk = func(prefix string, node *Node) {
		for _, c := range node.Children {
			p := c.Name()
			if prefix != "" {
				p = prefix + "/" + p
			}
			if c.Kind == KindGroup {
				walk(p, c)
			} else {
				out[p] = c.Value()
			}
		}
	}
	walk("", n)
	return out
}

// Validate checks the structural invariants of a description tree and that
// every leaf value satisfies its range and choices.
func (n *Node) Validate() error {
	return n.validate("", true)
}

func (n *Node) validate(path string, values bool) error {
	if n.Kind != KindGroup {
		if n.Key == "" {
			return fmt.Errorf("%w: empty key at %q", ErrMalformedDescriptor, path)
		}
		if len(n.Children) > 0 {
			return fmt.Errorf("%w: leaf %q has children", ErrMalformedDescriptor, path)
		}
		if !values {
			return nil
		}
		return n.checkValue(path)
	}

	seen := make(map[string]bool, len(n.Children))
	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("%w: nil child in %q", ErrMalformedDescriptor, path)
		}
		name := c.Name()
		if c.Key == "" {
			return fmt.Errorf("%w: empty key in %q", ErrMalformedDescriptor, path)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate key %q in %q", ErrMalformedDescriptor, name, path)
		}
		seen[name] = true
		if err := c.validate(join(path, name), values); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) checkValue(path string) error {
	switch n.Kind {
	case KindFloat, KindInt:
		if math.IsNaN(n.Number) || math.IsInf(n.Number, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrParameterBounds, path)
		}
		if n.Kind == KindInt && n.Number != math.Trunc(n.Number) {
			return fmt.Errorf("%w: %s = %v is not an integer", ErrParameterKind, path, n.Number)
		}
		if n.Bounded && (n.Number < n.Min || n.Number > n.Max) {
			return fmt.Errorf("%w: %s = %v outside [%v, %v]", ErrParameterBounds, path, n.Number, n.Min, n.Max)
		}
	case KindChoice:
		if len(n.Options) > 0 && !slices.Contains(n.Options, n.Choice) {
			return fmt.Errorf("%w: %s = %q not one of %v", ErrParameterBounds, path, n.Choice, n.Options)
		}
	case KindBool:
	default:
		return fmt.Errorf("%w: %s has unknown kind %v", ErrMalformedDescriptor, path, n.Kind)
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "/" + name
}
