package annotator

import (
	"golang.org/x/net/html"

	"github.com/nao1215/creditline/internal/dom"
)

// startWatcher subscribes to document mutations once.
func (a *Annotator) startWatcher() {
	if a.watch.Active() {
		return
	}
	a.watch = a.doc.Subscribe(a.handleMutations)
}

// handleMutations annotates containers inserted since the last flush: the
// inserted element itself when it is a container, then every container
// below it. Elements detached again before the flush are ignored.
func (a *Annotator) handleMutations(batch []dom.Mutation) {
	root := a.doc.Root()
	for _, m := range batch {
		for _, n := range m.Added {
			if n.Type != html.ElementNode || !dom.Contains(root, n) {
				continue
			}
			if containerSel.Match(n) && a.annotateContainer(n) {
				a.stats.Dynamic++
			}
			for _, c := range dom.QueryAll(n, containerSel) {
				if a.annotateContainer(c) {
					a.stats.Dynamic++
				}
			}
		}
	}
}
