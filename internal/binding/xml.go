package binding

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/antchfx/xmlquery"
)

// XMLCodec reads and writes <keyboard> documents. Documents rooted at
// <audacitykeyboard> are read too.
type XMLCodec struct{}

type xmlDocument struct {
	XMLName  xml.Name     `xml:"keyboard"`
	Version  int          `xml:"version,attr"`
	Commands []xmlCommand `xml:"command"`
}

type xmlCommand struct {
	Name  string `xml:"name,attr"`
	Index int    `xml:"index,attr,omitempty"`
	Key   string `xml:"key,attr"`
}

// Format implements Codec.
func (XMLCodec) Format() Format { return FormatXML }

// Encode implements Codec.
func (XMLCodec) Encode(w io.Writer, bindings []Binding) error {
	doc := xmlDocument{Version: Version, Commands: make([]xmlCommand, len(bindings))}
	for i, b := range bindings {
		doc.Commands[i] = xmlCommand(b)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Decode implements Codec.
func (XMLCodec) Decode(r io.Reader) (Decoded, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedBinding, err)
	}

	root := xmlquery.FindOne(doc, "/*")
	if root == nil {
		return Decoded{}, fmt.Errorf("%w: empty document", ErrMalformedBinding)
	}
	if root.Data != "keyboard" && root.Data != "audacitykeyboard" {
		return Decoded{}, fmt.Errorf("%w: unexpected root <%s>", ErrMalformedBinding, root.Data)
	}

	nodes, err := xmlquery.QueryAll(root, "*")
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedBinding, err)
	}

	var out Decoded
	for i, n := range nodes {
		// Other elements are not bindings.
		if n.Data != "command" {
			continue
		}
		b, problem := xmlEntry(i, n)
		if problem != nil {
			out.Problems = append(out.Problems, problem)
			continue
		}
		out.Bindings = append(out.Bindings, b)
	}
	return out, nil
}

func xmlEntry(i int, n *xmlquery.Node) (Binding, *MalformedError) {
	name, ok := xmlAttr(n, "name")
	if !ok || name == "" {
		return Binding{}, malformed(i, "missing name")
	}
	k, ok := xmlAttr(n, "key")
	if !ok {
		return Binding{}, malformed(i, "%s: missing key", name)
	}

	b := Binding{Name: name, Key: k}
	if s, ok := xmlAttr(n, "index"); ok {
		idx, err := strconv.Atoi(s)
		if err != nil || idx < 0 {
			return Binding{}, malformed(i, "%s: bad index %q", name, s)
		}
		b.Index = idx
	}
	return b, nil
}

func xmlAttr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
