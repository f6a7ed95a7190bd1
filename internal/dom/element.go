package dom

import (
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Attr returns the value of attribute key on n, or "" when absent.
func Attr(n *html.Node, key string) string {
	v, _ := LookupAttr(n, key)
	return v
}

// LookupAttr returns the value of attribute key and whether it is present.
func LookupAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on n, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, have := range Classes(n) {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass adds class c to n unless already present.
func AddClass(n *html.Node, c string) {
	if HasClass(n, c) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(Attr(n, "class")+" "+c))
}

// RemoveClass removes every occurrence of class c from n.
func RemoveClass(n *html.Node, c string) {
	if _, ok := LookupAttr(n, "class"); !ok {
		return
	}
	kept := make([]string, 0)
	for _, have := range Classes(n) {
		if have != c {
			kept = append(kept, have)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// declaration is one property of an inline style attribute.
type declaration struct {
	property  string
	value     string
	important bool
}

// parseStyle parses the inline style attribute of n. It reports false when
// the CSS parser rejects the attribute.
func parseStyle(n *html.Node) ([]declaration, bool) {
	raw := strings.TrimSpace(Attr(n, "style"))
	if raw == "" {
		return nil, true
	}
	// The parser drops the value of a final declaration without a terminator.
	if !strings.HasSuffix(raw, ";") {
		raw += ";"
	}
	decls, err := parser.ParseDeclarations(raw)
	if err != nil {
		return nil, false
	}
	out := make([]declaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, declaration{
			property:  strings.ToLower(d.Property),
			value:     strings.TrimSpace(d.Value),
			important: d.Important,
		})
	}
	return out, true
}

// writeStyle serializes decls back into the style attribute of n.
func writeStyle(n *html.Node, decls []declaration) {
	if len(decls) == 0 {
		RemoveAttr(n, "style")
		return
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		s := d.property + ": " + d.value
		if d.important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	SetAttr(n, "style", strings.Join(parts, "; ")+";")
}

// StyleProperty returns the inline value of a CSS property on n, or "".
// Only the style attribute is consulted, never stylesheets.
func StyleProperty(n *html.Node, property string) string {
	property = strings.ToLower(property)
	value := ""
	decls, _ := parseStyle(n)
	for _, d := range decls {
		if d.property == property {
			value = d.value
		}
	}
	return value
}

// SetStyleProperty sets an inline CSS property on n, keeping other
// declarations in place. A style attribute that cannot be parsed is left
// as it is.
func SetStyleProperty(n *html.Node, property, value string) {
	property = strings.ToLower(property)
	decls, ok := parseStyle(n)
	if !ok {
		return
	}
	replaced := false
	for i := range decls {
		if decls[i].property == property {
			decls[i].value = value
			decls[i].important = false
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, declaration{property: property, value: value})
	}
	writeStyle(n, decls)
}
