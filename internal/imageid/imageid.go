// Package imageid derives the identifier used to look up copyright metadata
// for an image.
//
// Resolution order:
//  1. the image's own data-id attribute
//  2. the data-id attribute of the nearest ancestor carrying one
//  3. the first URL matcher that matches the image's src
//  4. the sentinel model.DefaultID
//
// Extracted tokens are returned exactly as found; no case folding or
// trimming is applied.
package imageid

import (
	"net/url"
	"regexp"

	"golang.org/x/net/html"

	"github.com/nao1215/creditline/internal/dom"
	"github.com/nao1215/creditline/internal/model"
)

// Matcher extracts an identifier from an image URL.
type Matcher struct {
	// Name identifies the matcher in tests and logs.
	Name string

	// Pattern must contain exactly one capture group holding the identifier.
	Pattern *regexp.Regexp
}

// Match returns the identifier captured by m in url.
func (m Matcher) Match(url string) (string, bool) {
	sub := m.Pattern.FindStringSubmatch(url)
	if len(sub) < 2 || sub[1] == "" {
		return "", false
	}
	return sub[1], true
}

// Matchers are tried in order; the first match wins even when a later one
// would also match. The numbered matcher captures the whole stem, so
// "/img/su57-001.jpg" yields "su57-001" rather than "su57".
var Matchers = []Matcher{
	{Name: "query", Pattern: regexp.MustCompile(`id=(\w+)`)},
	{Name: "numbered", Pattern: regexp.MustCompile(`/(\w+-\d+)\.`)},
	{Name: "basename", Pattern: regexp.MustCompile(`/(\w+)\.`)},
}

// FromURL extracts an identifier from an image URL using Matchers.
func FromURL(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	for _, m := range Matchers {
		if id, ok := m.Match(url); ok {
			return id, true
		}
	}
	return "", false
}

// idHolder matches any element with a non-empty identifier attribute.
var idHolder = dom.MustCompile(`[` + model.IDAttr + `]:not([` + model.IDAttr + `=""])`)

// rootURL is the base used when a Resolver has none.
var rootURL = &url.URL{Path: "/"}

// Resolver resolves image identifiers, making src attributes absolute
// against a base URL first, the way a browser reports img.src.
type Resolver struct {
	base *url.URL
}

// NewResolver returns a Resolver using base for relative src attributes.
// A nil base resolves relative paths against "/".
func NewResolver(base *url.URL) Resolver {
	return Resolver{base: base}
}

// Resolve returns the identifier of img. It always returns a value.
func (r Resolver) Resolve(img *html.Node) string {
	if img == nil {
		return model.DefaultID
	}
	if holder := dom.Closest(img, idHolder); holder != nil {
		return dom.Attr(holder, model.IDAttr)
	}
	if id, ok := FromURL(r.SourceURL(img)); ok {
		return id
	}
	return model.DefaultID
}

// SourceURL returns the src attribute of img resolved against the base.
// Unparseable values are returned unchanged.
func (r Resolver) SourceURL(img *html.Node) string {
	src := dom.Attr(img, "src")
	if src == "" {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	base := r.base
	if base == nil {
		base = rootURL
	}
	return base.ResolveReference(ref).String()
}

// Resolve resolves img with a Resolver that has no base URL.
func Resolve(img *html.Node) string {
	return Resolver{}.Resolve(img)
}
