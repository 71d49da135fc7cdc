package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/deb-builder/internal/domain/debian"
)

// attributes is the value side of a registry entry.
type attributes struct {
	Path string `yaml:"path"`
}

// Load reads and validates the registry at path.
func Load(path string) ([]debian.ServiceEntry, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", debian.ErrLoad, path, err)
	}

	entries, err := Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return entries, nil
}

// Parse decodes registry contents.
func Parse(contents []byte) ([]debian.ServiceEntry, error) {
	var doc yaml.Node

	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: registry is empty", debian.ErrLoad)
		}

		return nil, fmt.Errorf("%w: %w", debian.ErrLoad, err)
	}

	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: registry is empty", debian.ErrLoad)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping of package names", debian.ErrLoad, root.Line)
	}

	var (
		entries = make([]debian.ServiceEntry, 0, len(root.Content)/2)
		seen    = make(map[string]struct{}, len(root.Content)/2)
	)

	// Mapping node content alternates keys and values.
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		packageName := keyNode.Value
		if _, ok := seen[packageName]; ok {
			return nil, fmt.Errorf("%w: line %d: duplicate package %q", debian.ErrLoad, keyNode.Line, packageName)
		}

		seen[packageName] = struct{}{}

		if valueNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: line %d: package %q must map to attributes", debian.ErrLoad, valueNode.Line, packageName)
		}

		var attrs attributes
		if err := valueNode.Decode(&attrs); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", debian.ErrLoad, valueNode.Line, err)
		}

		entry, err := debian.NewServiceEntry(packageName, attrs.Path)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", keyNode.Line, err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
