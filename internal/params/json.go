package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema returns a JSON Schema accepting documents that set any subset of the
// parameters in desc. Unknown keys, wrong kinds, out-of-range numbers and
// unlisted choices are rejected.
func Schema(desc *Node) ([]byte, error) {
	if err := desc.validate("", false); err != nil {
		return nil, err
	}
	s := schemaFor(desc)
	s["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return json.MarshalIndent(s, "", "  ")
}

func schemaFor(n *Node) map[string]any {
	s := map[string]any{}
	if n.Label != "" {
		s["title"] = n.Label
	}
	switch n.Kind {
	case KindGroup:
		props := make(map[string]any, len(n.Children))
		for _, c := range n.Children {
			props[c.Name()] = schemaFor(c)
		}
		s["type"] = "object"
		s["properties"] = props
		s["additionalProperties"] = false
	case KindFloat, KindInt:
		s["type"] = "number"
		if n.Kind == KindInt {
			s["type"] = "integer"
		}
		if n.Bounded {
			s["minimum"] = n.Min
			s["maximum"] = n.Max
		}
	case KindBool:
		s["type"] = "boolean"
	case KindChoice:
		s["type"] = "string"
		if len(n.Options) > 0 {
			s["enum"] = n.Options
		}
	}
	return s
}

// WriteJSON writes the values of n as a JSON object, preserving child order.
func WriteJSON(w io.Writer, n *Node) error {
	var buf bytes.Buffer
	writeJSONNode(&buf, n)
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

func writeJSONNode(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case KindGroup:
		buf.WriteByte('{')
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(c.Name()))
			buf.WriteByte(':')
			writeJSONNode(buf, c)
		}
		buf.WriteByte('}')
	case KindFloat:
		buf.WriteString(strconv.FormatFloat(n.Number, 'g', -1, 64))
	case KindInt:
		buf.WriteString(strconv.Itoa(int(n.Number)))
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.Flag))
	case KindChoice:
		b, _ := json.Marshal(n.Choice)
		buf.Write(b)
	}
}

// ReadJSON parses a JSON document, validates it against Schema(desc) and
// returns it as a partial tree suitable for Merge onto desc.
func ReadJSON(r io.Reader, desc *Node) (*Node, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	schemaText, err := Schema(desc)
	if err != nil {
		return nil, err
	}
	schema, err := jsonschema.CompileString("params.schema.json", string(schemaText))
	if err != nil {
		return nil, fmt.Errorf("compile parameter schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	obj, _ := doc.(map[string]any)
	return fromJSON(desc, obj), nil
}

// fromJSON relies on the document having passed schema validation.
func fromJSON(desc *Node, obj map[string]any) *Node {
	g := Group(desc.Key).WithID(desc.ID)
	for _, c := range desc.Children {
		v, ok := obj[c.Name()]
		if !ok {
			continue
		}
		switch c.Kind {
		case KindGroup:
			sub, _ := v.(map[string]any)
			g.Children = append(g.Children, fromJSON(c, sub))
		case KindFloat:
			f, _ := v.(float64)
			g.Children = append(g.Children, Float(c.Key, f).WithID(c.ID))
		case KindInt:
			f, _ := v.(float64)
			g.Children = append(g.Children, Int(c.Key, int(f)).WithID(c.ID))
		case KindBool:
			b, _ := v.(bool)
			g.Children = append(g.Children, Bool(c.Key, b).WithID(c.ID))
		case KindChoice:
			s, _ := v.(string)
			g.Children = append(g.Children, Choice(c.Key, s).WithID(c.ID))
		}
	}
	return g
}
