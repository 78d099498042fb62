package model

import (
	"encoding/xml"
	"maps"
)

// Extension holds what a typed element carries beyond its schema: foreign
// attributes and unrecognised child elements. Both are written back after
// the typed content of the element.
type Extension struct {
	Attrs []Attr    `xml:",any,attr"`
	Extra []Unknown `xml:",any"`
}

// Unknown is an element that is not part of the typed schema.
// It is carried through a load/save cycle unchanged: its attributes and
// inner XML are written back exactly as read.
type Unknown struct {
	XMLName xml.Name
	Attrs   []Attr `xml:",any,attr"`
	Inner   []byte `xml:",innerxml"`
}

// MarshalXML writes the element back under its original name. Names read
// from a document are already in prefix:local form, so no namespace is
// declared here.
func (u Unknown) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: u.XMLName.Local}}
	if u.XMLName.Space != "" && !isSchemaNamespace(u.XMLName.Space) {
		start.Name.Space = u.XMLName.Space
	}
	for _, a := range u.Attrs {
		attr, _ := a.MarshalXMLAttr(xml.Name{})
		start.Attr = append(start.Attr, attr)
	}
	return e.EncodeElement(struct {
		Inner []byte `xml:",innerxml"`
	}{u.Inner}, start)
}

// Attr is an attribute outside the typed schema, kept as read.
type Attr xml.Attr

// MarshalXMLAttr rewrites namespace declarations captured by the decoder
// (Space "xmlns") into literal "xmlns:prefix" names; encoding/xml would
// otherwise invent a prefix for the "xmlns" pseudo-namespace.
func (a Attr) MarshalXMLAttr(xml.Name) (xml.Attr, error) {
	if a.Name.Space == "xmlns" {
		return xml.Attr{Name: xml.Name{Local: "xmlns:" + a.Name.Local}, Value: a.Value}, nil
	}
	return xml.Attr(a), nil
}

func (a *Attr) UnmarshalXMLAttr(attr xml.Attr) error {
	*a = Attr(attr)
	return nil
}

func isSchemaNamespace(ns string) bool {
	return ns == DefinitionNamespace || ns == SettingsNamespace
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// nsScope maps the namespace URIs in scope at one element to the prefixes
// they were declared with. The decoder resolves prefixes to URIs; the scope
// turns them back so a save writes the names the document used.
type nsScope struct {
	def      string
	prefixes map[string]string
}

func rootScope(defaultNS string) nsScope {
	return nsScope{def: defaultNS, prefixes: map[string]string{xmlNamespace: "xml"}}
}

// with returns s extended by the xmlns declarations among attrs.
func (s nsScope) with(attrs []Attr) nsScope {
	out := s
	copied := false
	for _, a := range attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			out.def = a.Value
		case a.Name.Space == "xmlns":
			if !copied {
				out.prefixes = maps.Clone(s.prefixes)
				if out.prefixes == nil {
					out.prefixes = make(map[string]string)
				}
				copied = true
			}
			out.prefixes[a.Value] = a.Name.Local
		}
	}
	return out
}

// element returns n as written in the document. The default namespace
// stays unprefixed. A Space the scope does not know is an undeclared prefix,
// which the decoder leaves as is.
func (s nsScope) element(n xml.Name) xml.Name {
	if n.Space == "" || n.Space == s.def {
		return xml.Name{Local: n.Local}
	}
	return s.prefixed(n)
}

// attr is like element, but unprefixed attributes never take the default
// namespace, so a namespaced attribute always keeps a prefix.
func (s nsScope) attr(n xml.Name) xml.Name {
	if n.Space == "" || n.Space == "xmlns" {
		return n
	}
	return s.prefixed(n)
}

func (s nsScope) prefixed(n xml.Name) xml.Name {
	if p, ok := s.prefixes[n.Space]; ok {
		return xml.Name{Local: p + ":" + n.Local}
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}

// qualify rewrites the foreign names of x in place and returns the scope
// for its children.
func (x *Extension) qualify(parent nsScope) nsScope {
	s := parent.with(x.Attrs)
	qualifyAttrs(s, x.Attrs)
	for i := range x.Extra {
		x.Extra[i].qualify(s)
	}
	return s
}

func (u *Unknown) qualify(parent nsScope) {
	s := parent.with(u.Attrs)
	u.XMLName = s.element(u.XMLName)
	qualifyAttrs(s, u.Attrs)
}

func qualifyAttrs(s nsScope, attrs []Attr) {
	for i := range attrs {
		attrs[i].Name = s.attr(attrs[i].Name)
	}
}
