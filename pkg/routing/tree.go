package routing

import (
	"fmt"
	"io"
	"sort"
)

// routeNode is either a leaf, holding a *KBucket, or an internal node with
// two children for the next bit. A freshly split node nils out its
// bucket and gets two fresh leaf children.
type routeNode struct {
	bucket *KBucket
	zero   *routeNode
	one    *routeNode
}

func (n *routeNode) isLeaf() bool { return n.bucket != nil }

// KBucketTree is a binary prefix tree of KBuckets. It only ever splits a
// leaf that lies on the local id's path: every bucket not on that path
// stays a single, flat leaf no matter how full it gets, which keeps the
// tree "deep" near the local id and "shallow" everywhere else.
type KBucketTree struct {
	localId Id
	k, c    int
	root    *routeNode
}

// NewKBucketTree creates a tree holding a single root bucket.
func NewKBucketTree(localId Id, k, c int) *KBucketTree {
	return &KBucketTree{
		localId: localId,
		k:       k,
		c:       c,
		root:    &routeNode{bucket: NewKBucket(localId, 0, k, c)},
	}
}

// locate descends to the leaf that currently owns id, returning that leaf
// along with its depth and whether every branch taken down to it matches
// the local id's bits (i.e. whether it lies on the local id's path).
func (t *KBucketTree) locate(id Id) (leaf *routeNode, depth int, onPath bool) {
	cur := t.root
	depth = 0
	onPath = true
	for !cur.isLeaf() {
		bit := id.BitAt(depth)
		if onPath {
			onPath = bit == t.localId.BitAt(depth)
		}
		if bit == 0 {
			cur = cur.zero
		} else {
			cur = cur.one
		}
		depth++
	}
	return cur, depth, onPath
}

// Touch routes node to its owning bucket, splitting that bucket first if
// it is full, new to node.Id, lies on the local id's path, and has room
// left to branch (depth < the id's bit length). Splitting can cascade:
// after a split the node being touched may land in a bucket that is
// itself immediately full and still on the path.
func (t *KBucketTree) Touch(time int64, node Node) (KBucketChangeSet, error) {
	if node.Id.Length() != t.localId.Length() {
		return KBucketChangeSet{}, fmt.Errorf("%w: id length %d does not match local id length %d",
			ErrInvalidId, node.Id.Length(), t.localId.Length())
	}
	if node.Id.Equal(t.localId) {
		return KBucketChangeSet{}, nil
	}

	leaf, depth, onPath := t.locate(node.Id)

	for {
		_, alreadyLive := leaf.bucket.Live().Contains(node.Id)
		full := leaf.bucket.Live().Len() >= t.k
		if !full || alreadyLive || !onPath || depth >= node.Id.Length() {
			break
		}

		zero, one := leaf.bucket.Split()
		leaf.bucket = nil
		leaf.zero = &routeNode{bucket: zero}
		leaf.one = &routeNode{bucket: one}

		bit := node.Id.BitAt(depth)
		if onPath {
			onPath = bit == t.localId.BitAt(depth)
		}
		if bit == 0 {
			leaf = leaf.zero
		} else {
			leaf = leaf.one
		}
		depth++
	}

	return leaf.bucket.Touch(time, node)
}

// withBucket finds node.Id's bucket and applies fn to it.
func (t *KBucketTree) withBucket(id Id, fn func(*KBucket) (KBucketChangeSet, error)) (KBucketChangeSet, error) {
	if id.Length() != t.localId.Length() {
		return KBucketChangeSet{}, fmt.Errorf("%w: id length %d does not match local id length %d",
			ErrInvalidId, id.Length(), t.localId.Length())
	}
	leaf, _, _ := t.locate(id)
	return fn(leaf.bucket)
}

// existingLink reports the link currently bound to id in its owning
// bucket, if any.
func (t *KBucketTree) existingLink(id Id) (string, bool) {
	leaf, _, _ := t.locate(id)
	return leaf.bucket.findExistingLink(id)
}

// Stale delegates to the owning bucket's Stale.
func (t *KBucketTree) Stale(node Node) (KBucketChangeSet, error) {
	return t.withBucket(node.Id, func(b *KBucket) (KBucketChangeSet, error) { return b.Stale(node) })
}

// Lock delegates to the owning bucket's Lock.
func (t *KBucketTree) Lock(node Node) (KBucketChangeSet, error) {
	return t.withBucket(node.Id, func(b *KBucket) (KBucketChangeSet, error) { return b.Lock(node) })
}

// Unlock delegates to the owning bucket's Unlock.
func (t *KBucketTree) Unlock(node Node) (KBucketChangeSet, error) {
	return t.withBucket(node.Id, func(b *KBucket) (KBucketChangeSet, error) { return b.Unlock(node) })
}

// walk visits every leaf bucket in the tree.
func (t *KBucketTree) walk(fn func(*KBucket)) {
	var visit func(*routeNode)
	visit = func(n *routeNode) {
		if n.isLeaf() {
			fn(n.bucket)
			return
		}
		visit(n.zero)
		visit(n.one)
	}
	visit(t.root)
}

// Find returns the activities closest to target by XOR distance, up to
// max entries, drawn from every bucket's live set (and cache, if
// includeStale is set). Ties are broken by ascending id magnitude.
func (t *KBucketTree) Find(target Id, max int, includeStale bool) []Activity {
	var candidates []Activity
	t.walk(func(b *KBucket) {
		live, cache := b.Dump()
		candidates = append(candidates, live...)
		if includeStale {
			candidates = append(candidates, cache...)
		}
	})

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
	return candidates
}

// Depth reports the deepest split along the local id's path.
func (t *KBucketTree) Depth() int {
	depth := 0
	cur := t.root
	for !cur.isLeaf() {
		bit := t.localId.BitAt(depth)
		if bit == 0 {
			cur = cur.zero
		} else {
			cur = cur.one
		}
		depth++
	}
	return depth
}

// BucketCount reports the number of leaf buckets in the tree.
func (t *KBucketTree) BucketCount() int {
	count := 0
	t.walk(func(*KBucket) { count++ })
	return count
}

// DumpBuckets returns every leaf bucket's live and cache snapshots,
// ordered by prefix (a natural refresh-sweep order).
func (t *KBucketTree) DumpBuckets() [][2][]Activity {
	var out [][2][]Activity
	t.walk(func(b *KBucket) {
		live, cache := b.Dump()
		out = append(out, [2][]Activity{live, cache})
	})
	return out
}

// RandomIdForBucket generates a random id suitable as a lookup target for
// refreshing the bucket whose bucket-tree prefix length is prefixLen: it
// agrees with the local id on the first prefixLen bits and, when
// prefixLen is less than the id length, differs at bit prefixLen so the
// target actually falls in that bucket's range rather than back onto the
// local id's own path.
func (t *KBucketTree) RandomIdForBucket(prefixLen int, rnd io.Reader) (Id, error) {
	length := t.localId.Length()
	if prefixLen < 0 || prefixLen > length {
		return Id{}, fmt.Errorf("%w: prefix length %d out of range for id length %d", ErrInvalidId, prefixLen, length)
	}

	random, err := RandomId(length, rnd)
	if err != nil {
		return Id{}, err
	}

	buf := make([]byte, byteLen(length))
	copy(buf, random.bits)
	for i := 0; i < prefixLen; i++ {
		setBit(buf, i, t.localId.BitAt(i))
	}
	if prefixLen < length {
		setBit(buf, prefixLen, 1-t.localId.BitAt(prefixLen))
	}
	maskTrailingBits(buf, length)
	return Id{bits: buf, length: length}, nil
}

func setBit(buf []byte, i, v int) {
	byteIdx := i / 8
	bitIdx := 7 - (i % 8)
	if v == 1 {
		buf[byteIdx] |= 1 << bitIdx
	} else {
		buf[byteIdx] &^= 1 << bitIdx
	}
}
