package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector is a compiled CSS selector group such as
// "img:not(.no-copyright), .card-image-container".
type Selector struct {
	src string
	sel cascadia.Selector
}

// Compile parses a selector group.
func Compile(src string) (Selector, error) {
	sel, err := cascadia.Compile(src)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector %q: %w", src, err)
	}
	return Selector{src: src, sel: sel}, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level selectors built from constants.
func MustCompile(src string) Selector {
	s, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the selector source.
func (s Selector) String() string {
	return s.src
}

// Match reports whether the element n matches s. Non-element nodes never match.
func (s Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || s.sel == nil {
		return false
	}
	return s.sel.Match(n)
}

// QueryAll returns the descendants of root matching s in document order.
// root itself is not considered, as with Element.querySelectorAll.
func QueryAll(root *html.Node, s Selector) []*html.Node {
	if root == nil || s.sel == nil {
		return nil
	}
	return cascadia.QueryAll(root, s.sel)
}

// Query returns the first descendant of root matching s, or nil.
func Query(root *html.Node, s Selector) *html.Node {
	if root == nil || s.sel == nil {
		return nil
	}
	return cascadia.Query(root, s.sel)
}

// Closest returns n or its nearest ancestor matching s, or nil.
func Closest(n *html.Node, s Selector) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if s.Match(p) {
			return p
		}
	}
	return nil
}
