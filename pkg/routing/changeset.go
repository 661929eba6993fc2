package routing

// ActivityChangeSet describes what a single operation added, removed, or
// updated in a set of Activities. No Activity appears in more than one of
// the three lists. The zero value is NO_CHANGE: a legitimate outcome
// (e.g. a full bucket refusing an uncompetitive newcomer), not an error.
type ActivityChangeSet struct {
	Added   []Activity
	Removed []Activity
	Updated []Activity
}

// IsEmpty reports whether the change set is the NO_CHANGE sentinel.
func (cs ActivityChangeSet) IsEmpty() bool {
	return len(cs.Added) == 0 && len(cs.Removed) == 0 && len(cs.Updated) == 0
}

// mergeActivityChangeSets concatenates two change sets produced by
// successive operations on the same set (e.g. a stale-driven removal
// immediately followed by a cache promotion).
func mergeActivityChangeSets(a, b ActivityChangeSet) ActivityChangeSet {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	return ActivityChangeSet{
		Added:   append(append([]Activity{}, a.Added...), b.Added...),
		Removed: append(append([]Activity{}, a.Removed...), b.Removed...),
		Updated: append(append([]Activity{}, a.Updated...), b.Updated...),
	}
}

// KBucketChangeSet reports what happened in a KBucket's live set and its
// replacement cache during a single operation.
type KBucketChangeSet struct {
	Bucket ActivityChangeSet
	Cache  ActivityChangeSet
}

// IsEmpty reports whether both halves of the change set are NO_CHANGE.
func (cs KBucketChangeSet) IsEmpty() bool {
	return cs.Bucket.IsEmpty() && cs.Cache.IsEmpty()
}
