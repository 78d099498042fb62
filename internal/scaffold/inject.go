package scaffold

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/beevik/etree"

	"github.com/NielsdaWheelz/cloudrole/internal/fs"
)

const emptyConfig = `<?xml version="1.0" encoding="utf-8"?>
<configuration>
</configuration>
`

// Section is a <configSections>/<section> declaration.
type Section struct {
	Name string
	Type string
}

// FragmentData is the data available to fragment templates.
type FragmentData struct {
	Consumer string
	Provider string
}

// RenderFragment expands a fragment template. Values are XML-escaped with
// the "xml" function, e.g. {{xml .Provider}}.
func RenderFragment(fragment string, data FragmentData) (string, error) {
	tmpl, err := template.New("fragment").Funcs(template.FuncMap{"xml": escapeXML}).Parse(fragment)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// InjectConfigSections declares sections under <configSections>, which is
// kept as the first child of the root, and appends each top-level element
// of fragment to the root unless an element with the same tag is already
// there. Unrelated content, comments and formatting are left as they are.
// Reports whether anything changed; an unchanged document is returned as is.
func InjectConfigSections(data []byte, sections []Section, fragment string) ([]byte, bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, false, err
	}
	root := doc.Root()
	if root == nil {
		return nil, false, fmt.Errorf("document has no root element")
	}

	additions, err := fragmentElements(fragment)
	if err != nil {
		return nil, false, fmt.Errorf("invalid fragment: %w", err)
	}

	changed := false

	if len(sections) > 0 {
		cs := root.SelectElement("configSections")
		if cs == nil {
			cs = etree.NewElement("configSections")
			cs.AddChild(etree.NewText("\n  "))
			insertElement(root, 0, cs, "\n  ")
			changed = true
		}
		for _, s := range sections {
			if hasSection(cs, s.Name) {
				continue
			}
			el := etree.NewElement("section")
			el.CreateAttr("name", s.Name)
			el.CreateAttr("type", s.Type)
			insertElement(cs, beforeTrailingSpace(cs), el, "\n    ")
			changed = true
		}
	}

	for _, el := range additions {
		if root.SelectElement(el.Tag) != nil {
			continue
		}
		insertElement(root, beforeTrailingSpace(root), el, "\n  ")
		changed = true
	}

	if !changed {
		return data, false, nil
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// InjectFile applies InjectConfigSections to the file at path, reading the
// staged content first and the disk second, and stages the result. A missing
// file starts from an empty <configuration> document.
func InjectFile(fsys fs.FS, st Stager, path string, sections []Section, fragment string) (bool, error) {
	data, ok := st.Staged(path)
	if !ok {
		var err error
		data, err = fsys.ReadFile(path)
		if os.IsNotExist(err) {
			data, err = []byte(emptyConfig), nil
		}
		if err != nil {
			return false, err
		}
	}

	out, changed, err := InjectConfigSections(data, sections, fragment)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if changed {
		st.Stage(fs.File{Path: path, Data: out, Perm: 0644})
	}
	return changed, nil
}

func hasSection(cs *etree.Element, name string) bool {
	for _, el := range cs.SelectElements("section") {
		if el.SelectAttrValue("name", "") == name {
			return true
		}
	}
	return false
}

// fragmentElements parses fragment and returns its top-level elements,
// indented for insertion one level below a document root.
func fragmentElements(fragment string) ([]*etree.Element, error) {
	wrap := etree.NewDocument()
	if err := wrap.ReadFromString("<fragment>" + fragment + "</fragment>"); err != nil {
		return nil, err
	}
	wrap.Indent(2)
	return wrap.Root().ChildElements(), nil
}

// insertElement inserts el at index i of parent, preceded by indent.
func insertElement(parent *etree.Element, i int, el *etree.Element, indent string) {
	parent.InsertChildAt(i, el)
	parent.InsertChildAt(i, etree.NewText(indent))
}

// beforeTrailingSpace returns the index just before the whitespace that
// precedes parent's closing tag, or the end of its children.
func beforeTrailingSpace(parent *etree.Element) int {
	n := len(parent.Child)
	if n == 0 {
		return 0
	}
	if cd, ok := parent.Child[n-1].(*etree.CharData); ok && strings.TrimSpace(cd.Data) == "" {
		return n - 1
	}
	return n
}
