// Package transport bridges the I/O-free routing core to a connection
// layer. spec.md frames this as "the transport layer calls touch ...
// consumes the returned change sets to update its own connection state";
// Notifier is that bridge: it owns a *routing.Router, applies every
// touch/stale/lock/unlock on the caller's behalf, and fans the resulting
// change set out to a Sink so a real transport can open or close
// connections in response.
//
// Only live-set and near-set changes reach the Sink. The replacement
// cache holds peers that are not currently connected — promoting one
// of them into a freed live slot shows up as a Removed/Added pair on
// the bucket, which the Notifier does report, but a cache entry gained
// or dropped while the live set is untouched is purely internal
// bookkeeping and never implies a connection should open or close.
package transport

import "github.com/dustan1/kademlia/pkg/routing"

// Sink receives peer lifecycle events derived from a Router's change
// sets. A real transport would open a connection on PeerAdmitted, close
// one on PeerEvicted, and refresh liveness bookkeeping on PeerUpdated.
type Sink interface {
	PeerAdmitted(node routing.Node)
	PeerEvicted(node routing.Node)
	PeerUpdated(node routing.Node)
}

// Notifier wraps a *routing.Router and reports every resulting peer
// admission, eviction, and update to a Sink.
type Notifier struct {
	router *routing.Router
	sink   Sink
}

// NewNotifier builds a Notifier over router, reporting to sink.
func NewNotifier(router *routing.Router, sink Sink) *Notifier {
	return &Notifier{router: router, sink: sink}
}

// Router returns the underlying Router, for callers that also need the
// read-only Find/Dump surface directly.
func (n *Notifier) Router() *routing.Router {
	return n.router
}

// Touch applies router.Touch and reports the resulting changes.
func (n *Notifier) Touch(time int64, node routing.Node) (routing.RouterChangeSet, error) {
	cs, err := n.router.Touch(time, node)
	if err != nil {
		return routing.RouterChangeSet{}, err
	}
	n.report(cs)
	return cs, nil
}

// Stale applies router.Stale and reports the resulting changes.
func (n *Notifier) Stale(node routing.Node) (routing.RouterChangeSet, error) {
	cs, err := n.router.Stale(node)
	if err != nil {
		return routing.RouterChangeSet{}, err
	}
	n.report(cs)
	return cs, nil
}

// Lock applies router.Lock and reports the resulting changes (normally
// none: locking a slot does not itself add, remove, or update an
// Activity).
func (n *Notifier) Lock(node routing.Node) (routing.RouterChangeSet, error) {
	cs, err := n.router.Lock(node)
	if err != nil {
		return routing.RouterChangeSet{}, err
	}
	n.report(cs)
	return cs, nil
}

// Unlock applies router.Unlock and reports the resulting changes.
func (n *Notifier) Unlock(node routing.Node) (routing.RouterChangeSet, error) {
	cs, err := n.router.Unlock(node)
	if err != nil {
		return routing.RouterChangeSet{}, err
	}
	n.report(cs)
	return cs, nil
}

func (n *Notifier) report(cs routing.RouterChangeSet) {
	if n.sink == nil {
		return
	}
	// A peer that changes the same way in both the live set and the near
	// set is reported once.
	seen := make(map[string]bool)
	n.reportActivitySet(cs.Tree.Bucket, seen)
	n.reportActivitySet(cs.Near, seen)
}

// reportActivitySet reports evictions first, then admissions, then
// updates, skipping any (event, id) pair already reported.
func (n *Notifier) reportActivitySet(cs routing.ActivityChangeSet, seen map[string]bool) {
	emit := func(kind string, a routing.Activity, fn func(routing.Node)) {
		key := kind + ":" + a.Node.Id.Key()
		if !seen[key] {
			seen[key] = true
			fn(a.Node)
		}
	}
	for _, a := range cs.Removed {
		emit("evicted", a, n.sink.PeerEvicted)
	}
	for _, a := range cs.Added {
		emit("admitted", a, n.sink.PeerAdmitted)
	}
	for _, a := range cs.Updated {
		emit("updated", a, n.sink.PeerUpdated)
	}
}
