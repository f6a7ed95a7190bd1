package dom

import (
	"golang.org/x/net/html"
)

// maxFlushRounds bounds Flush when subscribers keep producing mutations.
const maxFlushRounds = 64

// Mutation is a single child-list change under <body>.
type Mutation struct {
	// Target is the parent whose children changed.
	Target *html.Node

	// Added holds nodes inserted under Target.
	Added []*html.Node

	// Removed holds nodes detached from Target.
	Removed []*html.Node
}

// Subscription is a callback registered with Subscribe.
type Subscription struct {
	doc    *Document
	fn     func([]Mutation)
	active bool
}

// Unsubscribe stops delivery to the subscription. It is safe to call more
// than once and from inside the callback.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active {
		return
	}
	s.active = false
	subs := s.doc.subs[:0]
	for _, other := range s.doc.subs {
		if other != s {
			subs = append(subs, other)
		}
	}
	s.doc.subs = subs
	if len(subs) == 0 {
		s.doc.queue = nil
	}
}

// Active reports whether the subscription still receives batches.
func (s *Subscription) Active() bool {
	return s != nil && s.active
}

// Subscribe registers fn to receive batches of mutations recorded under
// <body>. Only mutations made after Subscribe returns are recorded.
func (d *Document) Subscribe(fn func([]Mutation)) *Subscription {
	s := &Subscription{doc: d, fn: fn, active: true}
	d.subs = append(d.subs, s)
	return s
}

// Pending returns the number of recorded, undelivered mutations.
func (d *Document) Pending() int {
	return len(d.queue)
}

// Flush delivers recorded mutations to every active subscription, one batch
// per subscription per round. Mutations made by subscribers while a batch is
// delivered are delivered in the next round. Flush returns the number of
// records delivered; it is a no-op when called from inside a callback.
func (d *Document) Flush() int {
	if d.flushing {
		return 0
	}
	d.flushing = true
	defer func() { d.flushing = false }()

	delivered := 0
	for round := 0; round < maxFlushRounds && len(d.queue) > 0; round++ {
		batch := d.queue
		d.queue = nil
		subs := append([]*Subscription(nil), d.subs...)
		for _, s := range subs {
			if s.active {
				s.fn(batch)
			}
		}
		delivered += len(batch)
	}
	return delivered
}

// record queues m when someone is listening and the change is under <body>.
func (d *Document) record(m Mutation) {
	if len(d.subs) == 0 {
		return
	}
	body := d.Body()
	if body == nil || !Contains(body, m.Target) {
		return
	}
	d.queue = append(d.queue, m)
}

// detach removes n from its parent, recording the removal.
func (d *Document) detach(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(n)
	d.record(Mutation{Target: parent, Removed: []*html.Node{n}})
}

// AppendChild appends child as the last child of parent. A child that is
// already attached elsewhere is moved.
func (d *Document) AppendChild(parent, child *html.Node) {
	if parent == nil || child == nil {
		return
	}
	d.detach(child)
	parent.AppendChild(child)
	d.record(Mutation{Target: parent, Added: []*html.Node{child}})
}

// InsertBefore inserts child into parent before ref. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	if parent == nil || child == nil {
		return
	}
	if ref == nil || ref.Parent != parent {
		d.AppendChild(parent, child)
		return
	}
	d.detach(child)
	parent.InsertBefore(child, ref)
	d.record(Mutation{Target: parent, Added: []*html.Node{child}})
}

// Remove detaches n from the tree. Detached nodes are left as is.
func (d *Document) Remove(n *html.Node) {
	if n == nil {
		return
	}
	d.detach(n)
}

// Wrap inserts wrapper where n is and moves n inside it. It does nothing
// when n is detached.
func (d *Document) Wrap(n, wrapper *html.Node) {
	if n == nil || wrapper == nil || n.Parent == nil {
		return
	}
	d.InsertBefore(n.Parent, wrapper, n)
	d.AppendChild(wrapper, n)
}
