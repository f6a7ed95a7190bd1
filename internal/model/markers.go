package model

// Reserved names produced into, or consumed from, the host page.
const (
	// StyleElementID is the id of the single injected <style> block.
	StyleElementID = "copyright-annotator-styles"

	// AnnotationClass marks every rendered label element.
	AnnotationClass = "copyright-annotation"

	// PositionClassPrefix is combined with a Position to form the corner class.
	PositionClassPrefix = "copyright-position-"

	// HiddenClass is toggled on labels by visibility changes.
	HiddenClass = "copyright-annotation-hidden"

	// WrapperClass marks containers synthesized around bare images.
	WrapperClass = "image-container"

	// CardContainerClass marks card-style image containers.
	CardContainerClass = "card-image-container"

	// GalleryClass marks gallery containers.
	GalleryClass = "aircraft-gallery"

	// GalleryMainClass marks the main image container of a gallery page.
	GalleryMainClass = "gallery-main-image-container"

	// OptOutClass excludes an image from the standalone pass.
	OptOutClass = "no-copyright"

	// IDAttr carries an explicit image identifier on an image or an ancestor.
	IDAttr = "data-id"

	// SourceClass, InfoClass and IconClass style the parts of a label.
	SourceClass = "copyright-source"
	InfoClass   = "copyright-info"
	IconClass   = "copyright-icon"
)

// ContainerClasses lists the marker classes of pre-formed containers in the
// order the scanner visits them: cards first, then galleries.
var ContainerClasses = []string{CardContainerClass, GalleryClass, GalleryMainClass}

// ContainerSelector matches any pre-formed container.
const ContainerSelector = "." + CardContainerClass + ", ." + GalleryClass + ", ." + GalleryMainClass

// PositionClass returns the corner class for p.
func PositionClass(p Position) string {
	return PositionClassPrefix + string(p)
}
