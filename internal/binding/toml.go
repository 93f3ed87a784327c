package binding

import (
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

// TOMLCodec reads and writes TOML binding documents:
//
//	version = 1
//
//	[[binding]]
//	name = "Play"
//	key = "Space"
type TOMLCodec struct{}

type tomlOut struct {
	Version int        `toml:"version"`
	Binding []tomlItem `toml:"binding"`
}

type tomlItem struct {
	Name  string `toml:"name"`
	Index int    `toml:"index,omitempty"`
	Key   string `toml:"key"`
}

type tomlIn struct {
	Version int              `toml:"version"`
	Binding []map[string]any `toml:"binding"`
}

// Format implements Codec.
func (TOMLCodec) Format() Format { return FormatTOML }

// Encode implements Codec.
func (TOMLCodec) Encode(w io.Writer, bindings []Binding) error {
	doc := tomlOut{Version: Version, Binding: make([]tomlItem, len(bindings))}
	for i, b := range bindings {
		doc.Binding[i] = tomlItem(b)
	}
	return toml.NewEncoder(w).Encode(doc)
}

// Decode implements Codec.
func (TOMLCodec) Decode(r io.Reader) (Decoded, error) {
	var doc tomlIn
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Decoded{}, fmt.Errorf("%w: line %d, column %d: %v", ErrMalformedBinding, row, col, err)
		}
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedBinding, err)
	}

	var out Decoded
	for i, entry := range doc.Binding {
		b, problem := tomlBinding(i, entry)
		if problem != nil {
			out.Problems = append(out.Problems, problem)
			continue
		}
		out.Bindings = append(out.Bindings, b)
	}
	return out, nil
}

func tomlBinding(i int, entry map[string]any) (Binding, *MalformedError) {
	name, ok := entry["name"].(string)
	if !ok || name == "" {
		return Binding{}, malformed(i, "missing name")
	}
	k, ok := entry["key"].(string)
	if !ok {
		return Binding{}, malformed(i, "%s: missing key", name)
	}
	b := Binding{Name: name, Key: k}
	if raw, present := entry["index"]; present {
		idx, ok := raw.(int64)
		if !ok || idx < 0 {
			return Binding{}, malformed(i, "%s: bad index %v", name, raw)
		}
		b.Index = int(idx)
	}
	return b, nil
}
