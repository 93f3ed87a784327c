package binding

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec reads and writes YAML binding documents:
//
//	version: 1
//	bindings:
//	  - name: Play
//	    key: Space
type YAMLCodec struct{}

type yamlOut struct {
	Version  int        `yaml:"version"`
	Bindings []yamlItem `yaml:"bindings"`
}

type yamlItem struct {
	Name  string `yaml:"name"`
	Index int    `yaml:"index,omitempty"`
	Key   string `yaml:"key"`
}

type yamlIn struct {
	Version  int         `yaml:"version"`
	Bindings []yaml.Node `yaml:"bindings"`
}

type yamlEntry struct {
	Name  *string `yaml:"name"`
	Index *int    `yaml:"index"`
	Key   *string `yaml:"key"`
}

// Format implements Codec.
func (YAMLCodec) Format() Format { return FormatYAML }

// Encode implements Codec.
func (YAMLCodec) Encode(w io.Writer, bindings []Binding) error {
	doc := yamlOut{Version: Version, Bindings: make([]yamlItem, len(bindings))}
	for i, b := range bindings {
		doc.Bindings[i] = yamlItem(b)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Decode implements Codec. An empty document has no bindings.
func (YAMLCodec) Decode(r io.Reader) (Decoded, error) {
	var doc yamlIn
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Decoded{}, nil
		}
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedBinding, err)
	}

	var out Decoded
	for i := range doc.Bindings {
		b, problem := yamlBinding(i, &doc.Bindings[i])
		if problem != nil {
			out.Problems = append(out.Problems, problem)
			continue
		}
		out.Bindings = append(out.Bindings, b)
	}
	return out, nil
}

func yamlBinding(i int, node *yaml.Node) (Binding, *MalformedError) {
	if node.Kind != yaml.MappingNode {
		return Binding{}, malformed(i, "line %d: expected a mapping", node.Line)
	}
	var e yamlEntry
	if err := node.Decode(&e); err != nil {
		return Binding{}, malformed(i, "line %d: %v", node.Line, err)
	}
	if e.Name == nil || *e.Name == "" {
		return Binding{}, malformed(i, "line %d: missing name", node.Line)
	}
	if e.Key == nil {
		return Binding{}, malformed(i, "line %d: %s: missing key", node.Line, *e.Name)
	}
	b := Binding{Name: *e.Name, Key: *e.Key}
	if e.Index != nil {
		if *e.Index < 0 {
			return Binding{}, malformed(i, "line %d: %s: bad index %d", node.Line, b.Name, *e.Index)
		}
		b.Index = *e.Index
	}
	return b, nil
}
