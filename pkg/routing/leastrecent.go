package routing

import "fmt"

// NodeLeastRecentSet is a bounded, time-ordered sequence of Activities:
// head (index 0) is oldest, tail is newest — the classic Kademlia bucket.
// Admission favours longevity: once full, a brand-new id is rejected
// unless its timestamp is strictly older than the current newest entry,
// and overflow evicts the tail (the newest entry), never the oldest.
// This is the mirror image of NodeMostRecentSet's eviction policy.
type NodeLeastRecentSet struct {
	localId  Id
	capacity int
	entries  []Activity
}

// NewNodeLeastRecentSet creates an empty set bounded to capacity entries.
func NewNodeLeastRecentSet(localId Id, capacity int) *NodeLeastRecentSet {
	return &NodeLeastRecentSet{localId: localId, capacity: capacity}
}

// Len reports the current number of entries.
func (s *NodeLeastRecentSet) Len() int { return len(s.entries) }

// Contains is a pure query: it reports the stored Activity for id without
// modifying the set.
func (s *NodeLeastRecentSet) Contains(id Id) (Activity, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return Activity{}, false
}

func (s *NodeLeastRecentSet) indexOf(id Id) int {
	for i, a := range s.entries {
		if a.Node.Id.Equal(id) {
			return i
		}
	}
	return -1
}

// Touch records an observation of node at time. An id already present is
// always refreshed in place (Updated); a brand-new id is admitted if
// there is room, or — once the set is full — only if its timestamp is
// strictly older than the set's current newest entry, in which case that
// newest entry is evicted to make room.
func (s *NodeLeastRecentSet) Touch(t int64, node Node) (ActivityChangeSet, error) {
	if err := s.validate(node.Id); err != nil {
		return ActivityChangeSet{}, err
	}
	if node.Id.Equal(s.localId) {
		return ActivityChangeSet{}, nil
	}

	if i := s.indexOf(node.Id); i >= 0 {
		existing := s.entries[i]
		if existing.Node.Link != node.Link {
			return ActivityChangeSet{}, fmt.Errorf("%w: id %s bound to %q, touched with %q",
				ErrLinkConflict, node.Id, existing.Node.Link, node.Link)
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		pos := sortedInsertPos(s.entries, t)
		s.entries = append(s.entries, Activity{})
		copy(s.entries[pos+1:], s.entries[pos:])
		s.entries[pos] = Activity{Node: node, Time: t}
		return ActivityChangeSet{Updated: []Activity{existing}}, nil
	}

	newEntry := Activity{Node: node, Time: t}

	if len(s.entries) < s.capacity {
		pos := sortedInsertPos(s.entries, t)
		s.entries = append(s.entries, Activity{})
		copy(s.entries[pos+1:], s.entries[pos:])
		s.entries[pos] = newEntry
		return ActivityChangeSet{Added: []Activity{newEntry}}, nil
	}

	// Full: reject newcomers that are not strictly older than the
	// current newest entry.
	newest := s.entries[len(s.entries)-1]
	if t >= newest.Time {
		return ActivityChangeSet{}, nil
	}

	pos := sortedInsertPos(s.entries, t)
	s.entries = append(s.entries, Activity{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = newEntry
	evicted := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return ActivityChangeSet{Added: []Activity{newEntry}, Removed: []Activity{evicted}}, nil
}

// Remove deletes node's entry if present. Returns NO_CHANGE if the id is
// absent, and fails with ErrLinkConflict if the stored link differs.
func (s *NodeLeastRecentSet) Remove(node Node) (ActivityChangeSet, error) {
	i := s.indexOf(node.Id)
	if i < 0 {
		return ActivityChangeSet{}, nil
	}
	existing := s.entries[i]
	if existing.Node.Link != node.Link {
		return ActivityChangeSet{}, fmt.Errorf("%w: id %s bound to %q, removal requested for %q",
			ErrLinkConflict, node.Id, existing.Node.Link, node.Link)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return ActivityChangeSet{Removed: []Activity{existing}}, nil
}

// Resize changes the set's capacity. Shrinking evicts the newest entries
// (tail-first) until the new capacity is met; growing never evicts.
func (s *NodeLeastRecentSet) Resize(newCapacity int) ActivityChangeSet {
	s.capacity = newCapacity
	if newCapacity >= len(s.entries) {
		return ActivityChangeSet{}
	}
	evictCount := len(s.entries) - newCapacity
	keep := len(s.entries) - evictCount
	removed := append([]Activity{}, s.entries[keep:]...)
	s.entries = s.entries[:keep]
	return ActivityChangeSet{Removed: removed}
}

// Dump returns a snapshot of the set, oldest first.
func (s *NodeLeastRecentSet) Dump() []Activity {
	out := make([]Activity, len(s.entries))
	copy(out, s.entries)
	return out
}

// adopt appends an activity directly, bypassing admission policy. Used by
// KBucket.Split; see NodeMostRecentSet.adopt for why a plain append
// preserves the ordering invariant.
func (s *NodeLeastRecentSet) adopt(a Activity) {
	s.entries = append(s.entries, a)
}

func (s *NodeLeastRecentSet) validate(id Id) error {
	if id.Length() != s.localId.Length() {
		return fmt.Errorf("%w: id length %d does not match local id length %d",
			ErrInvalidId, id.Length(), s.localId.Length())
	}
	return nil
}
