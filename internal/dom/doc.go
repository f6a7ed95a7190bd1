// Package dom provides an in-memory HTML document that behaves like the live
// page creditline annotates.
//
// A Document owns a tree parsed with golang.org/x/net/html and exposes the
// small set of operations the annotator needs: CSS selector queries (via
// github.com/andybalholm/cascadia), class and inline-style manipulation, and
// tree mutations. Every mutation under <body> is recorded and published to
// subscribers as a batch of Mutation records when Flush is called, which is
// the change-notification source the annotator's watcher listens to.
//
// # Usage
//
//	doc, err := dom.Parse(r)
//	sub := doc.Subscribe(func(batch []dom.Mutation) {
//	    for _, m := range batch {
//	        // m.Added holds nodes inserted under m.Target
//	    }
//	})
//	defer sub.Unsubscribe()
//	doc.AppendChild(doc.Body(), node)
//	doc.Flush()
//
// A Document is not safe for concurrent use; like a browser page, it is
// driven from a single goroutine.
package dom
