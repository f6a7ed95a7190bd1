package annotator

import (
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/nao1215/creditline/internal/dom"
	"github.com/nao1215/creditline/internal/model"
)

var (
	annotationSel = dom.MustCompile("." + model.AnnotationClass)
	imageSel      = dom.MustCompile("img")
	cardSel       = dom.MustCompile("." + model.CardContainerClass)
	gallerySel    = dom.MustCompile("." + model.GalleryClass + ", ." + model.GalleryMainClass)
	containerSel  = dom.MustCompile(model.ContainerSelector)
	standaloneSel = dom.MustCompile(`img:not(.` + model.OptOutClass + `):not([aria-hidden="true"])`)
	idHolderSel   = dom.MustCompile("[" + model.IDAttr + "]")
)

// kindOf classifies a container by its marker classes.
func kindOf(container *html.Node) ContainerKind {
	switch {
	case dom.HasClass(container, model.CardContainerClass):
		return KindCard
	case dom.HasClass(container, model.GalleryClass), dom.HasClass(container, model.GalleryMainClass):
		return KindGallery
	default:
		return KindStandalone
	}
}

// AnnotateAllImages runs the card, gallery and standalone passes. Containers
// that already hold a label are skipped, so repeated calls are no-ops.
func (a *Annotator) AnnotateAllImages() {
	root := a.doc.Root()
	before := a.stats.Annotated

	for _, c := range dom.QueryAll(root, cardSel) {
		a.annotateContainer(c)
	}
	for _, c := range dom.QueryAll(root, gallerySel) {
		a.annotateContainer(c)
	}
	a.annotateStandaloneImages()

	a.logger.Debug("scan complete", "annotated", a.stats.Annotated-before)
}

// annotateContainer labels container when it holds an image and no label.
// It reports whether a label was rendered. The scanner passes and the
// watcher both go through here.
func (a *Annotator) annotateContainer(container *html.Node) bool {
	img := dom.Query(container, imageSel)
	if img == nil || dom.Query(container, annotationSel) != nil {
		return false
	}
	a.render(container, img, a.ImageID(img), kindOf(container))
	return true
}

// annotateStandaloneImages labels images outside any pre-formed container.
// An image whose parent is already positioned is labelled through that
// parent; any other image is wrapped in a synthesized container first.
// Wrappers and labels are spans so they stay valid inside phrasing content.
func (a *Annotator) annotateStandaloneImages() {
	for _, img := range dom.QueryAll(a.doc.Root(), standaloneSel) {
		if dom.Closest(img, containerSel) != nil {
			continue
		}
		parent := img.Parent
		if parent == nil || parent.Type != html.ElementNode {
			continue
		}

		if dom.StyleProperty(parent, "position") == "relative" {
			if dom.Query(parent, annotationSel) == nil {
				a.render(parent, img, a.ImageID(img), KindStandalone)
			}
			continue
		}

		wrapper := dom.CreateElement("span")
		dom.SetAttr(wrapper, "class", model.WrapperClass)
		a.doc.Wrap(img, wrapper)
		a.stats.Wrapped++
		a.render(wrapper, img, a.ImageID(img), KindStandalone)
	}
}

// AddAnnotation appends a label for id to container. It does not check for
// an existing label; callers keep containers at one label each.
func (a *Annotator) AddAnnotation(container *html.Node, id string) {
	if container == nil {
		return
	}
	a.render(container, dom.Query(container, imageSel), id, kindOf(container))
}

// render builds the label for id and appends it as the last child of
// container.
func (a *Annotator) render(container, img *html.Node, id string, kind ContainerKind) {
	if dom.StyleProperty(container, "position") != "relative" {
		dom.SetStyleProperty(container, "position", "relative")
	}

	rec := a.table.Lookup(id)
	matched := a.table.Has(id)

	label := dom.CreateElement("span")
	dom.SetAttr(label, "class", model.AnnotationClass+" "+model.PositionClass(a.config.Position))

	if a.config.ShowSource && rec.Source != "" {
		label.AppendChild(a.line(model.SourceClass, "fa-camera", rec.Source))
	}
	if a.config.ShowCopyright {
		label.AppendChild(a.line(model.InfoClass, "fa-copyright", rec.Copyright+" "+rec.Year))
		if rec.License != "" {
			label.AppendChild(a.line(model.InfoClass, "fa-certificate", rec.License))
		}
	}

	a.doc.AppendChild(container, label)
	a.entries[label] = &entry{container: container, image: img, id: id, kind: kind}

	a.stats.Annotated++
	if !matched {
		a.stats.DefaultHits++
	}

	a.logger.Debug("annotated image",
		"id", id,
		"kind", kind,
		"matched", matched,
		"src", a.resolver.SourceURL(img),
	)
}

// labelPolicy keeps the inline markup a label row may carry. Block elements
// would split a label rendered inside phrasing content.
func labelPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("title").OnElements("abbr")
	p.RequireNoFollowOnLinks(true)
	p.AllowElements("b", "strong", "i", "em", "small", "sub", "sup", "abbr", "cite", "br")
	return p
}

// line builds one row of a label. The text is sanitized and may keep simple
// inline markup.
func (a *Annotator) line(class, icon, text string) *html.Node {
	row := dom.CreateElement("span")
	dom.SetAttr(row, "class", class)

	i := dom.CreateElement("i")
	dom.SetAttr(i, "class", "fa "+icon+" "+model.IconClass)
	dom.SetAttr(i, "aria-hidden", "true")
	row.AppendChild(i)
	row.AppendChild(dom.CreateText(" "))

	nodes, err := dom.ParseFragment(row, a.policy.Sanitize(text))
	if err != nil {
		a.logger.Warn("failed to parse label text", "error", err)
		row.AppendChild(dom.CreateText(text))
		return row
	}
	for _, n := range nodes {
		row.AppendChild(n)
	}
	return row
}
