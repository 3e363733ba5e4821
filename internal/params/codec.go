package params

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type tagSpec struct {
	key     string
	label   string
	id      string
	min     float64
	max     float64
	step    float64
	bounded bool
	options []string
}

func parseTag(tag string) (tagSpec, error) {
	parts := strings.Split(tag, ",")
	spec := tagSpec{key: parts[0]}
	var hasMin, hasMax bool
	for _, p := range parts[1:] {
		name, val, ok := strings.Cut(p, "=")
		if !ok {
			return spec, fmt.Errorf("%w: tag option %q", ErrMalformedDescriptor, p)
		}
		var err error
		switch name {
		case "label":
			spec.label = val
		case "id":
			spec.id = val
		case "min":
			spec.min, err = strconv.ParseFloat(val, 64)
			hasMin = true
		case "max":
			spec.max, err = strconv.ParseFloat(val, 64)
			hasMax = true
		case "step":
			spec.step, err = strconv.ParseFloat(val, 64)
		case "options":
			spec.options = strings.Split(val, "|")
		default:
			return spec, fmt.Errorf("%w: unknown tag option %q", ErrMalformedDescriptor, name)
		}
		if err != nil {
			return spec, fmt.Errorf("%w: tag option %q: %v", ErrMalformedDescriptor, p, err)
		}
	}
	spec.bounded = hasMin && hasMax
	return spec, nil
}

// Describe builds a parameter tree from a struct whose fields carry `param` tags.
// Untagged fields are not parameters. Current values are not range checked.
func Describe(v any) (*Node, error) {
	rv, err := structValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	root := Group("")
	if err := describeStruct(root, rv); err != nil {
		return nil, err
	}
	if err := root.validate("", false); err != nil {
		return nil, err
	}
	return root, nil
}

// Decode applies the values in tree to the struct pointed to by dst. The tree
// may be partial. dst is only written when the whole tree is acceptable.
func Decode(tree *Node, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer", ErrMalformedDescriptor)
	}
	desc, err := Describe(dst)
	if err != nil {
		return err
	}
	merged, err := Merge(desc, tree)
	if err != nil {
		return err
	}
	return assignStruct(merged, rv.Elem())
}

func structValue(rv reflect.Value) (reflect.Value, error) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return rv, fmt.Errorf("%w: nil pointer", ErrMalformedDescriptor)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return rv, fmt.Errorf("%w: %v is not a struct", ErrMalformedDescriptor, rv.Kind())
	}
	return rv, nil
}

func paramFields(rt reflect.Type, fn func(i int, spec tagSpec) error) error {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag, ok := f.Tag.Lookup("param")
		if !ok || tag == "-" || !f.IsExported() {
			continue
		}
		spec, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if err := fn(i, spec); err != nil {
			return err
		}
	}
	return nil
}

func describeStruct(g *Node, rv reflect.Value) error {
	return paramFields(rv.Type(), func(i int, spec tagSpec) error {
		n, err := describeValue(spec, rv.Field(i))
		if err != nil {
			return err
		}
		g.Children = append(g.Children, n)
		return nil
	})
}

func describeValue(spec tagSpec, fv reflect.Value) (*Node, error) {
	var n *Node
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		n = Float(spec.key, fv.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = Int(spec.key, int(fv.Int()))
	case reflect.Bool:
		n = Bool(spec.key, fv.Bool())
	case reflect.String:
		n = Choice(spec.key, fv.String(), spec.options...)
	case reflect.Struct:
		n = Group(spec.key)
		if err := describeStruct(n, fv); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s has unsupported type %v", ErrMalformedDescriptor, spec.key, fv.Type())
	}
	n.Label = spec.label
	n.ID = spec.id
	if spec.bounded {
		n.WithRange(spec.min, spec.max, spec.step)
	} else {
		n.Step = spec.step
	}
	return n, nil
}

func assignStruct(g *Node, rv reflect.Value) error {
	return paramFields(rv.Type(), func(i int, spec tagSpec) error {
		n := g.Child(spec.key, spec.id)
		if n == nil {
			return fmt.Errorf("%w: %s", ErrUnknownParameter, spec.key)
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.Float32, reflect.Float64:
			fv.SetFloat(n.Number)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fv.SetInt(int64(n.Number))
		case reflect.Bool:
			fv.SetBool(n.Flag)
		case reflect.String:
			fv.SetString(n.Choice)
		case reflect.Struct:
			return assignStruct(n, fv)
		}
		return nil
	})
}
