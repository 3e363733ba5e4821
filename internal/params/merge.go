package params

import (
	"fmt"
	"math"
)

// Merge overlays the values in patch onto a copy of base and returns it.
// Leaves missing from patch keep their base values. Every node in patch must
// name a node in base of a compatible kind, and every value must satisfy the
// base's range and choices; otherwise Merge fails and base is untouched.
func Merge(base, patch *Node) (*Node, error) {
	out := base.Clone()
	if patch == nil {
		return out, nil
	}
	if err := mergeInto(out, patch, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func mergeInto(dst, src *Node, path string) error {
	if dst.Kind == KindGroup {
		if src.Kind != KindGroup {
			return fmt.Errorf("%w: %q is a group", ErrParameterKind, path)
		}
		for _, sc := range src.Children {
			dc := dst.Child(sc.Key, sc.ID)
			if dc == nil {
				return fmt.Errorf("%w: %q", ErrUnknownParameter, join(path, sc.Name()))
			}
			if err := mergeInto(dc, sc, join(path, sc.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	switch {
	case dst.Kind.numeric() && src.Kind.numeric():
		if dst.Kind == KindInt && src.Number != math.Trunc(src.Number) {
			return fmt.Errorf("%w: %q wants an integer, got %v", ErrParameterKind, path, src.Number)
		}
		dst.Number = src.Number
	case dst.Kind == KindBool && src.Kind == KindBool:
		dst.Flag = src.Flag
	case dst.Kind == KindChoice && src.Kind == KindChoice:
		dst.Choice = src.Choice
	default:
		return fmt.Errorf("%w: %q is %v, got %v", ErrParameterKind, path, dst.Kind, src.Kind)
	}
	return dst.checkValue(path)
}
