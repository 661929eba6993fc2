package routing

import (
	"fmt"
	"sort"
)

// RouterChangeSet reports what a Router operation changed in the tree and
// in the near set.
type RouterChangeSet struct {
	Tree KBucketChangeSet
	Near ActivityChangeSet
}

// IsEmpty reports whether both halves of the change set are NO_CHANGE.
func (cs RouterChangeSet) IsEmpty() bool {
	return cs.Tree.IsEmpty() && cs.Near.IsEmpty()
}

// Router combines a KBucketTree with a near set of capacity n, so that
// the globally closest peers ever observed are retained even when they
// would otherwise be evicted from (or never fit into) a full bucket.
type Router struct {
	localId Id
	tree    *KBucketTree
	near    *nearSet
}

// NewRouter builds a Router with live-set capacity k, cache capacity c,
// and near-set capacity n.
func NewRouter(localId Id, k, c, n int) *Router {
	return &Router{
		localId: localId,
		tree:    NewKBucketTree(localId, k, c),
		near:    newNearSet(localId, n),
	}
}

func (r *Router) validate(id Id) error {
	if id.Length() != r.localId.Length() {
		return fmt.Errorf("%w: id length %d does not match local id length %d",
			ErrInvalidId, id.Length(), r.localId.Length())
	}
	return nil
}

// Touch records an observation of node at time in both the tree and the
// near set. A link conflict in either structure aborts the whole
// operation before either is mutated, so a touch is all-or-nothing.
func (r *Router) Touch(time int64, node Node) (RouterChangeSet, error) {
	if err := r.validate(node.Id); err != nil {
		return RouterChangeSet{}, err
	}
	if node.Id.Equal(r.localId) {
		return RouterChangeSet{}, nil
	}

	if link, found := r.tree.existingLink(node.Id); found && link != node.Link {
		return RouterChangeSet{}, fmt.Errorf("%w: id %s bound to %q, touched with %q",
			ErrLinkConflict, node.Id, link, node.Link)
	}
	if existing, found := r.near.Contains(node.Id); found && existing.Node.Link != node.Link {
		return RouterChangeSet{}, fmt.Errorf("%w: id %s bound to %q, touched with %q",
			ErrLinkConflict, node.Id, existing.Node.Link, node.Link)
	}

	treeChange, err := r.tree.Touch(time, node)
	if err != nil {
		return RouterChangeSet{}, err
	}
	nearChange, err := r.near.Touch(time, node)
	if err != nil {
		return RouterChangeSet{}, err
	}

	return RouterChangeSet{Tree: treeChange, Near: nearChange}, nil
}

// Stale marks node unresponsive in its owning bucket. The near set is
// unaffected: it tracks closeness, not liveness.
func (r *Router) Stale(node Node) (RouterChangeSet, error) {
	if err := r.validate(node.Id); err != nil {
		return RouterChangeSet{}, err
	}
	treeChange, err := r.tree.Stale(node)
	if err != nil {
		return RouterChangeSet{}, err
	}
	return RouterChangeSet{Tree: treeChange}, nil
}

// Lock reserves node's live slot in its owning bucket.
func (r *Router) Lock(node Node) (RouterChangeSet, error) {
	if err := r.validate(node.Id); err != nil {
		return RouterChangeSet{}, err
	}
	treeChange, err := r.tree.Lock(node)
	if err != nil {
		return RouterChangeSet{}, err
	}
	return RouterChangeSet{Tree: treeChange}, nil
}

// Unlock clears a lock set by Lock or by Stale's bypass path.
func (r *Router) Unlock(node Node) (RouterChangeSet, error) {
	if err := r.validate(node.Id); err != nil {
		return RouterChangeSet{}, err
	}
	treeChange, err := r.tree.Unlock(node)
	if err != nil {
		return RouterChangeSet{}, err
	}
	return RouterChangeSet{Tree: treeChange}, nil
}

// Find returns the nodes closest to target by XOR distance, up to max
// entries: the union of every bucket's live set and the near set,
// deduplicated by id and sorted by distance (ties broken by ascending id
// magnitude).
func (r *Router) Find(target Id, max int) ([]Node, error) {
	if err := r.validate(target); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var candidates []Activity
	for _, a := range r.tree.Find(target, -1, false) {
		key := a.Node.Id.Key()
		if !seen[key] {
			seen[key] = true
			candidates = append(candidates, a)
		}
	}
	for _, a := range r.near.Dump() {
		key := a.Node.Id.Key()
		if !seen[key] {
			seen[key] = true
			candidates = append(candidates, a)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		di := candidates[i].Node.Id.Xor(target)
		dj := candidates[j].Node.Id.Xor(target)
		if c := di.CompareMagnitude(dj); c != 0 {
			return c < 0
		}
		return candidates[i].Node.Id.CompareMagnitude(candidates[j].Node.Id) < 0
	})

	if max >= 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	nodes := make([]Node, len(candidates))
	for i, a := range candidates {
		nodes[i] = a.Node
	}
	return nodes, nil
}

// Dump returns every live peer known to the Router: every bucket's live
// set plus the near set, deduplicated by id.
func (r *Router) Dump() []Activity {
	seen := make(map[string]bool)
	var out []Activity
	r.tree.walk(func(b *KBucket) {
		for _, a := range b.Live().Dump() {
			key := a.Node.Id.Key()
			if !seen[key] {
				seen[key] = true
				out = append(out, a)
			}
		}
	})
	for _, a := range r.near.Dump() {
		key := a.Node.Id.Key()
		if !seen[key] {
			seen[key] = true
			out = append(out, a)
		}
	}
	return out
}

// Size reports the number of distinct peers the Router currently knows
// about (live bucket entries plus near-set entries, deduplicated).
func (r *Router) Size() int {
	return len(r.Dump())
}

// LocalId returns the id this Router is routing around.
func (r *Router) LocalId() Id { return r.localId }

// Depth and BucketCount expose the underlying tree's shape.
func (r *Router) Depth() int       { return r.tree.Depth() }
func (r *Router) BucketCount() int { return r.tree.BucketCount() }
func (r *Router) NearSetLen() int  { return r.near.Len() }
