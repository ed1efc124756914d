package report

import (
	"fmt"
	"html/template"
	"strings"
)

// Attr is one HTML attribute; attributes render in the order given
type Attr struct {
	Name  string
	Value string
}

// A is shorthand for an Attr
func A(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// voidElements never have content or a closing tag
var voidElements = map[string]bool{
	"br":  true,
	"col": true,
	"hr":  true,
	"img": true,
}

// Tag builds an HTML element with escaped content and attribute values.
// Content may be nil, a string, template.HTML (inserted as is) or any
// value printable with %v. An empty name returns just the escaped content.
func Tag(name string, content interface{}, attrs ...Attr) template.HTML {
	inner := escape(content)
	if name == "" {
		return inner
	}
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(name)
	for _, a := range attrs {
		fmt.Fprintf(&b, ` %s="%s"`, a.Name, template.HTMLEscapeString(a.Value))
	}
	b.WriteString(">")
	if voidElements[name] {
		return template.HTML(b.String())
	}
	b.WriteString(string(inner))
	fmt.Fprintf(&b, "</%s>", name)
	return template.HTML(b.String())
}

func escape(content interface{}) template.HTML {
	switch v := content.(type) {
	case nil:
		return ""
	case template.HTML:
		return v
	case string:
		return template.HTML(template.HTMLEscapeString(v))
	default:
		return template.HTML(template.HTMLEscapeString(fmt.Sprint(v)))
	}
}

// Concat joins fragments that are already safe
func Concat(parts ...template.HTML) template.HTML {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(p))
	}
	return template.HTML(b.String())
}
