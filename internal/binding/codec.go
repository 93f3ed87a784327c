package binding

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/cmdmgr/internal/command"
)

// Version is written to every document.
const Version = 1

// Format names a document format.
type Format string

// Supported formats.
const (
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Decoded is the result of decoding a document.
type Decoded struct {
	Bindings []Binding
	Problems []*MalformedError
}

// Codec reads and writes binding documents.
type Codec interface {
	Format() Format
	Encode(w io.Writer, bindings []Binding) error

	// Decode returns the well-formed entries and a problem per bad entry.
	// An error means the input is not a binding document at all.
	Decode(r io.Reader) (Decoded, error)
}

// NewCodec returns the codec for f.
func NewCodec(f Format) (Codec, error) {
	switch f {
	case FormatXML:
		return XMLCodec{}, nil
	case FormatYAML:
		return YAMLCodec{}, nil
	case FormatTOML:
		return TOMLCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Save exports the registry under policy and encodes it to w.
// It returns the number of bindings written.
func Save(w io.Writer, c Codec, reg *command.Registry, p Policy) (int, error) {
	bindings := Export(reg, p)
	if err := c.Encode(w, bindings); err != nil {
		return 0, fmt.Errorf("encode %s: %w", c.Format(), err)
	}
	return len(bindings), nil
}

// Load decodes r and applies the result to the registry.
func Load(r io.Reader, c Codec, reg *command.Registry) (Report, error) {
	dec, err := c.Decode(r)
	if err != nil {
		return Report{}, err
	}
	rep := Apply(reg, dec.Bindings)
	rep.add(dec.Problems)
	return rep, nil
}
