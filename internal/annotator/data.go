package annotator

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/creditline/internal/dom"
	"github.com/nao1215/creditline/internal/model"
)

// UpdateConfig merges patch into the configuration, restyles every label in
// the document and rebuilds the style block.
func (a *Annotator) UpdateConfig(patch model.ConfigPatch) {
	a.config = a.config.Merge(patch)

	for _, n := range dom.QueryAll(a.doc.Root(), annotationSel) {
		dom.SetStyleProperty(n, "opacity", formatOpacity(a.config.Opacity))
		dom.SetStyleProperty(n, "font-size", a.config.FontSize)
		dom.SetStyleProperty(n, "background-color", a.config.BgColor)

		for _, c := range dom.Classes(n) {
			if strings.HasPrefix(c, model.PositionClassPrefix) {
				dom.RemoveClass(n, c)
			}
		}
		dom.AddClass(n, model.PositionClass(a.config.Position))
	}

	a.removeStyles()
	a.InitStyles()
}

// ToggleVisibility shows or hides every label without removing it.
func (a *Annotator) ToggleVisibility(show bool) {
	for _, n := range dom.QueryAll(a.doc.Root(), annotationSel) {
		if show {
			dom.RemoveClass(n, model.HiddenClass)
		} else {
			dom.AddClass(n, model.HiddenClass)
		}
	}
}

// AddCopyrightData merges patch into the record for id, creating it when
// absent, then re-renders the labels that resolve to id and belong to an
// element whose data-id is id. A label belongs to such an element when it
// sits inside it, or when the image it was rendered for does. Labels inside
// the element whose images carry their own identifier are left alone.
func (a *Annotator) AddCopyrightData(id string, patch model.RecordPatch) {
	a.table[id] = a.table[id].Merge(patch)

	root := a.doc.Root()
	var holders []*html.Node
	for _, n := range dom.QueryAll(root, idHolderSel) {
		if dom.Attr(n, model.IDAttr) == id {
			holders = append(holders, n)
		}
	}
	if len(holders) == 0 {
		return
	}

	type target struct {
		label     *html.Node
		container *html.Node
	}
	var targets []target
	for _, label := range dom.QueryAll(root, annotationSel) {
		container, img := label.Parent, dom.Query(label.Parent, imageSel)
		resolved := ""
		if e, ok := a.entries[label]; ok {
			container, img, resolved = e.container, e.image, e.id
		} else if img != nil {
			resolved = a.ImageID(img)
		}
		if resolved != id || container == nil {
			continue
		}
		for _, holder := range holders {
			if dom.Contains(holder, label) || (img != nil && dom.Contains(holder, img)) {
				targets = append(targets, target{label: label, container: container})
				break
			}
		}
	}

	for _, t := range targets {
		a.doc.Remove(t.label)
		delete(a.entries, t.label)
		a.render(t.container, dom.Query(t.container, imageSel), id, kindOf(t.container))
	}

	a.logger.Debug("copyright data updated", "id", id, "rerendered", len(targets))
}

// ExportCopyrightData returns the metadata table as indented JSON.
func (a *Annotator) ExportCopyrightData() (string, error) {
	data, err := a.table.Export()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Import merges a JSON table over the metadata table and re-annotates the
// document. Nothing changes when data cannot be parsed.
func (a *Annotator) Import(data []byte) error {
	t, err := model.ParseTable(data)
	if err != nil {
		a.stats.ImportFailures++
		return err
	}

	a.table.Merge(t)
	a.RemoveAllAnnotations()
	a.AnnotateAllImages()

	a.logger.Info("copyright data imported", "records", len(t))
	return nil
}

// ImportCopyrightData is Import for text input. Failures are logged and
// reported as false.
func (a *Annotator) ImportCopyrightData(text string) bool {
	if err := a.Import([]byte(text)); err != nil {
		a.logger.Error("failed to import copyright data", "error", err)
		return false
	}
	return true
}

// RemoveAllAnnotations removes every label in the document. Containers and
// wrappers stay in place.
func (a *Annotator) RemoveAllAnnotations() {
	for _, n := range dom.QueryAll(a.doc.Root(), annotationSel) {
		a.doc.Remove(n)
	}
	a.prune()
}
