// Package annotator overlays copyright labels onto the images of a document.
//
// An Annotator is bound to one dom.Document and holds its own display
// configuration and metadata table, so independent instances never share
// state. Init injects the stylesheet, annotates every eligible image and
// subscribes to the document's mutations so that containers inserted later
// are annotated when the document flushes its change notifications. Close
// ends the subscription.
//
// # Containers
//
// Images are annotated through their container, the element the label is
// appended to:
//   - card containers (.card-image-container)
//   - gallery containers (.aircraft-gallery, .gallery-main-image-container)
//   - standalone images, which are wrapped in a synthesized
//     span.image-container unless their parent is already positioned
//
// A container holds at most one label. Every pass checks for an existing
// label before annotating, so scanning twice changes nothing.
//
// # Usage
//
//	doc, _ := dom.Parse(r)
//	a := annotator.New(doc, annotator.WithLogger(logger))
//	a.Init(model.ConfigPatch{Position: model.Ptr(model.PositionTopLeft)})
//	defer a.Close()
//	ok := a.ImportCopyrightData(jsonText)
package annotator
