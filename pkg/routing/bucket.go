package routing

import "fmt"

// KBucket is a single k-bucket: a live NodeLeastRecentSet of capacity k
// plus a NodeMostRecentSet replacement cache of capacity c, covering the
// ids that start with a `prefix`-bit path in the tree. It also tracks per-id "locked" state
// used by the stale/lock machinery to keep a live slot from being
// refreshed by touches while a probe is outstanding.
type KBucket struct {
	localId Id
	prefix  int

	live  *NodeLeastRecentSet
	cache *NodeMostRecentSet

	lastUpdateTime int64
	lastTouchTime  int64

	locked map[string]Id
}

// NewKBucket creates an empty bucket at the given prefix depth.
func NewKBucket(localId Id, prefix, k, c int) *KBucket {
	return &KBucket{
		localId: localId,
		prefix:  prefix,
		live:    NewNodeLeastRecentSet(localId, k),
		cache:   NewNodeMostRecentSet(localId, c),
		locked:  make(map[string]Id),
	}
}

// Prefix reports the bucket's depth in the tree: the length of the bit
// prefix its members share. Only for a bucket on the local id's path is
// that prefix also shared with the local id.
func (b *KBucket) Prefix() int { return b.prefix }

// Live returns the bucket's live set.
func (b *KBucket) Live() *NodeLeastRecentSet { return b.live }

// Cache returns the bucket's replacement cache.
func (b *KBucket) Cache() *NodeMostRecentSet { return b.cache }

// IsLocked reports whether id is currently locked out of the live set.
func (b *KBucket) IsLocked(id Id) bool {
	_, ok := b.locked[id.Key()]
	return ok
}

// validateMembership checks node.Id's bit length and screens out the
// local id itself (a legal no-op, signalled by ok=false with no error).
// It does not otherwise check that id actually belongs under this
// bucket's prefix: that routing decision is the tree's job, made by
// walking bit-by-bit down to the leaf before ever calling Touch here,
// and a bucket not on the local id's path can legitimately hold ids
// that share none of the local id's bits beyond the split point.
func (b *KBucket) validateMembership(id Id) (ok bool, err error) {
	if id.Length() != b.localId.Length() {
		return false, fmt.Errorf("%w: id length %d does not match local id length %d",
			ErrInvalidId, id.Length(), b.localId.Length())
	}
	if id.Equal(b.localId) {
		return false, nil
	}
	return true, nil
}

// findExistingLink reports the link currently bound to id in this bucket
// (live or cache), if any.
func (b *KBucket) findExistingLink(id Id) (string, bool) {
	if a, ok := b.live.Contains(id); ok {
		return a.Node.Link, true
	}
	if a, ok := b.cache.Contains(id); ok {
		return a.Node.Link, true
	}
	return "", false
}

// Touch records an observation of node at time. See spec §4.3 for the
// full admission algorithm: locked ids go cache-only; otherwise live is
// tried first, falling through to the cache when live declines the
// newcomer; admission into live evicts any stale cache entry for the
// same id.
func (b *KBucket) Touch(t int64, node Node) (KBucketChangeSet, error) {
	ok, err := b.validateMembership(node.Id)
	if err != nil {
		return KBucketChangeSet{}, err
	}
	if !ok {
		return KBucketChangeSet{}, nil
	}

	if link, found := b.findExistingLink(node.Id); found && link != node.Link {
		return KBucketChangeSet{}, fmt.Errorf("%w: id %s bound to %q, touched with %q",
			ErrLinkConflict, node.Id, link, node.Link)
	}

	b.lastTouchTime = t

	var bucketChange, cacheChange ActivityChangeSet

	if b.IsLocked(node.Id) {
		cacheChange, err = b.cache.Touch(t, node)
		if err != nil {
			return KBucketChangeSet{}, err
		}
	} else {
		bucketChange, err = b.live.Touch(t, node)
		if err != nil {
			return KBucketChangeSet{}, err
		}
		if !bucketChange.IsEmpty() {
			if removed, _ := b.cache.Remove(node); !removed.IsEmpty() {
				cacheChange = removed
			}
		} else {
			cacheChange, err = b.cache.Touch(t, node)
			if err != nil {
				return KBucketChangeSet{}, err
			}
		}
	}

	result := KBucketChangeSet{Bucket: bucketChange, Cache: cacheChange}
	if !result.IsEmpty() {
		b.lastUpdateTime = t
	}
	return result, nil
}

// Stale marks node unresponsive. node must currently be in the live set.
// Its live slot is freed; if the cache holds any entries, the most
// recently cached one is promoted into live using its own cache
// timestamp. If the cache is empty, the id is also locked, so future
// touches for it land in the cache only. Unlock clears that lock only once
// the id is back in the live set (by a later cache promotion); before
// that, Unlock fails with ErrBadOperation.
func (b *KBucket) Stale(node Node) (KBucketChangeSet, error) {
	act, ok := b.live.Contains(node.Id)
	if !ok {
		return KBucketChangeSet{}, fmt.Errorf("%w: %s is not in the live set", ErrBadOperation, node.Id)
	}
	if act.Node.Link != node.Link {
		return KBucketChangeSet{}, fmt.Errorf("%w: id %s bound to %q, stale requested for %q",
			ErrLinkConflict, node.Id, act.Node.Link, node.Link)
	}

	removed, err := b.live.Remove(node)
	if err != nil {
		return KBucketChangeSet{}, err
	}
	liveChange := removed

	var cacheChange ActivityChangeSet
	if b.cache.Len() > 0 {
		promoted := b.cache.RemoveMostRecent(1)
		cacheChange = promoted
		promotedActivity := promoted.Removed[0]
		added, err := b.live.Touch(promotedActivity.Time, promotedActivity.Node)
		if err != nil {
			return KBucketChangeSet{}, err
		}
		liveChange = mergeActivityChangeSets(liveChange, added)
	} else {
		b.locked[node.Id.Key()] = node.Id
	}

	return KBucketChangeSet{Bucket: liveChange, Cache: cacheChange}, nil
}

// Lock reserves node's live slot: node must currently be in the live set.
// While locked, touches for that id are routed to the cache instead of
// refreshing the live entry, until Unlock is called.
func (b *KBucket) Lock(node Node) (KBucketChangeSet, error) {
	act, ok := b.live.Contains(node.Id)
	if !ok {
		return KBucketChangeSet{}, fmt.Errorf("%w: %s is not in the live set", ErrBadOperation, node.Id)
	}
	if act.Node.Link != node.Link {
		return KBucketChangeSet{}, fmt.Errorf("%w: id %s bound to %q, lock requested for %q",
			ErrLinkConflict, node.Id, act.Node.Link, node.Link)
	}
	b.locked[node.Id.Key()] = node.Id
	return KBucketChangeSet{}, nil
}

// Unlock clears a lock set by Lock or by Stale's bypass path. node must
// currently be in the live set.
func (b *KBucket) Unlock(node Node) (KBucketChangeSet, error) {
	act, ok := b.live.Contains(node.Id)
	if !ok {
		return KBucketChangeSet{}, fmt.Errorf("%w: %s is not in the live set", ErrBadOperation, node.Id)
	}
	if act.Node.Link != node.Link {
		return KBucketChangeSet{}, fmt.Errorf("%w: id %s bound to %q, unlock requested for %q",
			ErrLinkConflict, node.Id, act.Node.Link, node.Link)
	}
	delete(b.locked, node.Id.Key())
	return KBucketChangeSet{}, nil
}

// Split partitions this bucket into two children at prefix+1, one for
// each value of the next bit. Every live and cache entry, and every
// locked id, moves to the child matching its bit at position `prefix`;
// time order within live and cache is preserved. The parent bucket is
// left empty and should not be reused after Split returns.
func (b *KBucket) Split() (zero, one *KBucket) {
	zero = NewKBucket(b.localId, b.prefix+1, b.live.capacity, b.cache.capacity)
	one = NewKBucket(b.localId, b.prefix+1, b.live.capacity, b.cache.capacity)

	for _, act := range b.live.Dump() {
		target := zero
		if act.Node.Id.BitAt(b.prefix) == 1 {
			target = one
		}
		target.live.adopt(act)
	}
	for _, act := range b.cache.Dump() {
		target := zero
		if act.Node.Id.BitAt(b.prefix) == 1 {
			target = one
		}
		target.cache.adopt(act)
	}
	for _, id := range b.locked {
		target := zero
		if id.BitAt(b.prefix) == 1 {
			target = one
		}
		target.locked[id.Key()] = id
	}
	return zero, one
}

// Dump returns a read-only snapshot of the bucket's live and cache sets.
func (b *KBucket) Dump() (live, cache []Activity) {
	return b.live.Dump(), b.cache.Dump()
}
