package params

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteXML writes n as nested <group>/<float>/<int>/<bool>/<choice> elements
// under a <parameters> root. Keys, ids and labels are attributes.
func WriteXML(w io.Writer, n *Node) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	root := xml.StartElement{Name: xml.Name{Local: "parameters"}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := writeXMLNode(enc, c); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	return enc.Flush()
}

func writeXMLNode(enc *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Kind.String()}}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "key"}, Value: n.Key})
	if n.ID != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: n.ID})
	}
	if n.Label != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "label"}, Value: n.Label})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	var text string
	switch n.Kind {
	case KindGroup:
		for _, c := range n.Children {
			if err := writeXMLNode(enc, c); err != nil {
				return err
			}
		}
	case KindFloat:
		text = strconv.FormatFloat(n.Number, 'g', -1, 64)
	case KindInt:
		text = strconv.Itoa(int(n.Number))
	case KindBool:
		text = strconv.FormatBool(n.Flag)
	case KindChoice:
		text = n.Choice
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// ReadXML parses a document written by WriteXML.
func ReadXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *Node
		stack []*Node
		text  strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			text.Reset()
			if root == nil {
				if t.Name.Local != "parameters" {
					return nil, fmt.Errorf("%w: root element %q", ErrInvalidDocument, t.Name.Local)
				}
				root = Group("")
				stack = append(stack, root)
				continue
			}
			n, err := xmlElement(t)
			if err != nil {
				return nil, err
			}
			parent := stack[len(stack)-1]
			if parent.Kind != KindGroup {
				return nil, fmt.Errorf("%w: %q nested in leaf %q", ErrInvalidDocument, n.Key, parent.Key)
			}
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unbalanced </%s>", ErrInvalidDocument, t.Name.Local)
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n.Kind != KindGroup {
				if err := setXMLText(n, strings.TrimSpace(text.String())); err != nil {
					return nil, err
				}
			}
			text.Reset()
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: missing <parameters> root", ErrInvalidDocument)
	}
	return root, nil
}

func xmlElement(t xml.StartElement) (*Node, error) {
	n := &Node{}
	switch t.Name.Local {
	case "group":
		n.Kind = KindGroup
	case "float":
		n.Kind = KindFloat
	case "int":
		n.Kind = KindInt
	case "bool":
		n.Kind = KindBool
	case "choice":
		n.Kind = KindChoice
	default:
		return nil, fmt.Errorf("%w: unknown element <%s>", ErrInvalidDocument, t.Name.Local)
	}
	for _, a := range t.Attr {
		switch a.Name.Local {
		case "key":
			n.Key = a.Value
		case "id":
			n.ID = a.Value
		case "label":
			n.Label = a.Value
		}
	}
	if n.Key == "" {
		return nil, fmt.Errorf("%w: <%s> without key", ErrInvalidDocument, t.Name.Local)
	}
	return n, nil
}

func setXMLText(n *Node, text string) error {
	var err error
	switch n.Kind {
	case KindFloat:
		n.Number, err = strconv.ParseFloat(text, 64)
	case KindInt:
		var v int64
		v, err = strconv.ParseInt(text, 10, 64)
		n.Number = float64(v)
	case KindBool:
		n.Flag, err = strconv.ParseBool(text)
	case KindChoice:
		n.Choice = text
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, n.Key, err)
	}
	return nil
}
