package protocol

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const (
	Namespace      = "http://ecommerce.cbmp.com.br"
	DefaultVersion = "1.1.0"

	credentialsNode = "dados-ec"
)

// Placement says where an injected field lands inside the root element.
type Placement int

const (
	// BeforeCredentials places the field immediately before dados-ec.
	BeforeCredentials Placement = iota
	// Trailing places the field after every child node.
	Trailing
)

// Field is a top-level element that is not backed by a Node, such as the
// tid or the return URL.
type Field struct {
	Tag       string
	Value     string
	Placement Placement
}

// Document is the composite node: an ordered list of children wrapped in
// <Root id versao xmlns>. A Document is itself a Node, so composites nest.
type Document struct {
	Root      string
	ID        string
	Version   string
	Namespace string

	nodes  []Node
	fields []Field
}

// NewDocument creates an empty document with the default version and the
// protocol namespace.
func NewDocument(root, id string) *Document {
	return &Document{
		Root:      root,
		ID:        id,
		Version:   DefaultVersion,
		Namespace: Namespace,
	}
}

// Add appends a child. Children are serialized in insertion order.
func (d *Document) Add(n Node) *Document {
	d.nodes = append(d.nodes, n)
	return d
}

// Nodes returns a copy of the children.
func (d *Document) Nodes() []Node {
	out := make([]Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Find returns the first child named name.
func (d *Document) Find(name string) (Node, bool) {
	for _, n := range d.nodes {
		if n.NodeName() == name {
			return n, true
		}
	}
	return nil, false
}

func (d *Document) NodeName() string { return d.Root }

// withFields returns a shallow copy of d that injects fields during
// serialization. d itself is left untouched.
func (d *Document) withFields(fields []Field) *Document {
	cp := *d
	cp.fields = fields
	return &cp
}

// MarshalXML writes the root element, the children and the injected fields
// in a single pass. No validation happens here.
func (d *Document) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	version := d.Version
	if version == "" {
		version = DefaultVersion
	}
	ns := d.Namespace
	if ns == "" {
		ns = Namespace
	}

	start := xml.StartElement{
		Name: xml.Name{Local: d.Root},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: d.ID},
			{Name: xml.Name{Local: "versao"}, Value: version},
			{Name: xml.Name{Local: "xmlns"}, Value: ns},
		},
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	var before, trailing []Field
	for _, f := range d.fields {
		if f.Placement == BeforeCredentials {
			before = append(before, f)
		} else {
			trailing = append(trailing, f)
		}
	}

	for _, n := range d.nodes {
		if len(before) > 0 && n.NodeName() == credentialsNode {
			if err := encodeFields(e, before); err != nil {
				return err
			}
			before = nil
		}
		if err := e.Encode(n); err != nil {
			return fmt.Errorf("encoding %s: %w", n.NodeName(), err)
		}
	}

	// No credentials node: the fields still go out, ahead of the trailing ones.
	if err := encodeFields(e, before); err != nil {
		return err
	}
	if err := encodeFields(e, trailing); err != nil {
		return err
	}

	return e.EncodeToken(start.End())
}

func encodeFields(e *xml.Encoder, fields []Field) error {
	for _, f := range fields {
		if err := e.EncodeElement(f.Value, xml.StartElement{Name: xml.Name{Local: f.Tag}}); err != nil {
			return fmt.Errorf("encoding %s: %w", f.Tag, err)
		}
	}
	return nil
}

// Bytes serializes the document with the XML declaration.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
