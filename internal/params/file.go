package params

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format names a persisted tree encoding.
type Format string

const (
	YAML Format = "yaml"
	XML  Format = "xml"
	JSON Format = "json"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".xml":
		return XML, nil
	case ".json":
		return JSON, nil
	}
	return "", fmt.Errorf("params: unsupported file type %q", filepath.Ext(path))
}

// SaveFile writes n to path in the format given by its extension.
func SaveFile(path string, n *Node) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch format {
	case YAML:
		err = WriteYAML(f, n)
	case XML:
		err = WriteXML(f, n)
	case JSON:
		err = WriteJSON(f, n)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// LoadFile reads a tree from path. desc is required for JSON, whose documents
// are validated against Schema(desc); it is ignored otherwise.
func LoadFile(path string, desc *Node) (*Node, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch format {
	case XML:
		return ReadXML(f)
	case JSON:
		if desc == nil {
			return nil, fmt.Errorf("params: %s: JSON parameters need a description", path)
		}
		return ReadJSON(f, desc)
	}
	return ReadYAML(f)
}
