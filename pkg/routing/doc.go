// Package routing implements a Kademlia-style routing core: fixed-length
// ids and XOR distance, bounded time-ordered sets of peer activity, a
// binary k-bucket tree that splits only along the local id's path, and a
// Router that layers a closest-peers near set on top of the tree.
//
// The core is deliberately synchronous and clockless: every operation is
// a plain function call that either fully applies or fully fails, no
// goroutine safety is built in (callers needing concurrent access must
// provide their own locking; pkg/transport adds none), and every notion of
// time is an int64 the caller supplies rather than anything read from a
// clock.
package routing
