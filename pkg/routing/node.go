package routing

import "fmt"

// Node identifies a peer by id plus its opaque transport link (typically
// an address). The pair (Id, Link) defines identity within the routing
// core: two nodes sharing an id but carrying different links are a link
// conflict, and operations that discover one fail rather than silently
// overwrite the other.
type Node struct {
	Id   Id
	Link string
}

// NewNode builds a Node, rejecting an empty link up front so the core
// never has to reason about a node with no way to reach it.
func NewNode(id Id, link string) (Node, error) {
	if link == "" {
		return Node{}, fmt.Errorf("%w: node link must be non-empty", ErrInvalidId)
	}
	return Node{Id: id, Link: link}, nil
}

// Activity pairs a Node with the caller-supplied time it was last
// observed. Time is opaque to the core beyond its ordering: it is never
// read from a clock internally.
type Activity struct {
	Node Node
	Time int64
}
