package annotator

import (
	"strconv"

	"github.com/aymerick/douceur/css"

	"github.com/nao1215/creditline/internal/dom"
	"github.com/nao1215/creditline/internal/model"
)

// hoverContainers are the containers whose hover state reveals labels.
var hoverContainers = []string{
	"." + model.WrapperClass,
	"." + model.CardContainerClass,
	"." + model.GalleryClass,
	"." + model.GalleryMainClass,
}

// cornerOffsets pins a label to each corner.
var cornerOffsets = map[model.Position][2]string{
	model.PositionBottomRight: {"bottom", "right"},
	model.PositionBottomLeft:  {"bottom", "left"},
	model.PositionTopRight:    {"top", "right"},
	model.PositionTopLeft:     {"top", "left"},
}

// formatOpacity writes an opacity the way it was configured, without
// rounding or clamping.
func formatOpacity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rule builds a qualified CSS rule from property/value pairs.
func rule(selectors []string, pairs ...string) *css.Rule {
	r := css.NewRule(css.QualifiedRule)
	r.Selectors = selectors
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Declarations = append(r.Declarations, &css.Declaration{
			Property: pairs[i],
			Value:    pairs[i+1],
		})
	}
	return r
}

// Stylesheet returns the CSS reflecting cfg.
func Stylesheet(cfg model.DisplayConfig) *css.Stylesheet {
	annotation := "." + model.AnnotationClass
	sheet := css.NewStylesheet()

	sheet.Rules = append(sheet.Rules, rule([]string{annotation},
		"position", "absolute",
		"color", "white",
		"font-size", cfg.FontSize,
		"background-color", cfg.BgColor,
		"padding", "4px 8px",
		"border-radius", "4px",
		"pointer-events", "none",
		"z-index", "10",
		"opacity", formatOpacity(cfg.Opacity),
		"transition", "opacity 0.3s ease",
		"max-width", "80%",
		"line-height", "1.3",
		"backdrop-filter", "blur(2px)",
	))

	for _, p := range model.Positions() {
		offsets := cornerOffsets[p]
		sheet.Rules = append(sheet.Rules, rule(
			[]string{annotation + "." + model.PositionClass(p)},
			offsets[0], "5px",
			offsets[1], "5px",
		))
	}

	sheet.Rules = append(sheet.Rules,
		rule([]string{"." + model.HiddenClass}, "opacity", "0"),
		rule([]string{"." + model.WrapperClass}, "position", "relative", "display", "inline-block"),
		rule([]string{"." + model.SourceClass}, "font-weight", "500", "margin-bottom", "2px", "display", "block"),
		rule([]string{"." + model.InfoClass}, "font-size", "11px", "opacity", "0.9", "display", "block"),
		rule([]string{"." + model.IconClass}, "margin-right", "4px", "font-size", "10px"),
	)

	if cfg.ShowOnHover {
		hidden := make([]string, 0, len(hoverContainers))
		shown := make([]string, 0, len(hoverContainers))
		for _, c := range hoverContainers {
			hidden = append(hidden, c+":not(:hover) "+annotation)
			shown = append(shown, c+":hover "+annotation)
		}
		sheet.Rules = append(sheet.Rules,
			rule(hidden, "opacity", "0"),
			rule(shown, "opacity", formatOpacity(cfg.Opacity)),
		)
	}

	return sheet
}

// InitStyles inserts the stylesheet into the document head unless an element
// with the reserved id already exists anywhere in the document.
func (a *Annotator) InitStyles() {
	if a.doc.ElementByID(model.StyleElementID) != nil {
		return
	}
	head := a.doc.Head()
	if head == nil {
		a.logger.Warn("document has no head, styles not injected")
		return
	}

	style := dom.CreateElement("style")
	dom.SetAttr(style, "id", model.StyleElementID)
	style.AppendChild(dom.CreateText("\n" + Stylesheet(a.config).String() + "\n"))
	a.doc.AppendChild(head, style)
}

// removeStyles deletes the injected style block.
func (a *Annotator) removeStyles() {
	if n := a.doc.ElementByID(model.StyleElementID); n != nil {
		a.doc.Remove(n)
	}
}
