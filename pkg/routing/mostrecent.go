package routing

import (
	"fmt"
	"sort"
)

// NodeMostRecentSet is a bounded, time-ordered sequence of Activities:
// head (index 0) is oldest, tail is newest. Admission favours recent
// activity — when full, the oldest entry is evicted to make room for a
// newer one. This backs a KBucket's replacement cache; the Router's near
// set is the distance-ranked nearSet instead.
type NodeMostRecentSet struct {
	localId  Id
	capacity int
	entries  []Activity
}

// NewNodeMostRecentSet creates an empty set bounded to capacity entries.
func NewNodeMostRecentSet(localId Id, capacity int) *NodeMostRecentSet {
	return &NodeMostRecentSet{localId: localId, capacity: capacity}
}

// Len reports the current number of entries.
func (s *NodeMostRecentSet) Len() int { return len(s.entries) }

// Contains is a pure query: it reports the stored Activity for id without
// modifying the set.
func (s *NodeMostRecentSet) Contains(id Id) (Activity, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return Activity{}, false
}

func (s *NodeMostRecentSet) indexOf(id Id) int {
	for i, a := range s.entries {
		if a.Node.Id.Equal(id) {
			return i
		}
	}
	return -1
}

// sortedInsertPos returns the position at which an entry with the given
// time should be inserted to keep entries non-decreasing head-to-tail,
// placing the newcomer after any existing equal-time entries.
func sortedInsertPos(entries []Activity, t int64) int {
	return sort.Search(len(entries), func(i int) bool { return entries[i].Time > t })
}

// Touch records an observation of node at time, admitting it into the
// set. A prior entry for the same id is replaced and reported as Updated.
// The new entry goes after every entry with an equal or earlier time; if
// the set then exceeds its capacity, the oldest entry is evicted. If the
// evicted entry is the newcomer itself, the result is NO_CHANGE.
func (s *NodeMostRecentSet) Touch(t int64, node Node) (ActivityChangeSet, error) {
	if err := s.validate(node.Id); err != nil {
		return ActivityChangeSet{}, err
	}
	if node.Id.Equal(s.localId) {
		return ActivityChangeSet{}, nil
	}

	var oldEntry Activity
	hadOld := false
	if i := s.indexOf(node.Id); i >= 0 {
		existing := s.entries[i]
		if existing.Node.Link != node.Link {
			return ActivityChangeSet{}, fmt.Errorf("%w: id %s bound to %q, touched with %q",
				ErrLinkConflict, node.Id, existing.Node.Link, node.Link)
		}
		oldEntry = existing
		hadOld = true
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}

	newEntry := Activity{Node: node, Time: t}
	pos := sortedInsertPos(s.entries, t)
	s.entries = append(s.entries, Activity{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = newEntry

	var evicted Activity
	hasEviction := false
	if len(s.entries) > s.capacity {
		evicted = s.entries[0]
		s.entries = s.entries[1:]
		hasEviction = true
	}

	if hasEviction && !hadOld && evicted.Node.Id.Equal(newEntry.Node.Id) && evicted.Time == newEntry.Time {
		return ActivityChangeSet{}, nil
	}

	cs := ActivityChangeSet{}
	if hadOld {
		cs.Updated = []Activity{oldEntry}
	} else {
		cs.Added = []Activity{newEntry}
	}
	if hasEviction {
		cs.Removed = []Activity{evicted}
	}
	return cs, nil
}

// Remove deletes node's entry if present. Returns NO_CHANGE if the id is
// absent, and fails with ErrLinkConflict if the stored link differs.
func (s *NodeMostRecentSet) Remove(node Node) (ActivityChangeSet, error) {
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

// Resize changes the set's capacity. Shrinking evicts the oldest entries
// (head-first) until the new capacity is met; growing never evicts.
func (s *NodeMostRecentSet) Resize(newCapacity int) ActivityChangeSet {
	s.capacity = newCapacity
	if newCapacity >= len(s.entries) {
		return ActivityChangeSet{}
	}
	evictCount := len(s.entries) - newCapacity
	removed := append([]Activity{}, s.entries[:evictCount]...)
	s.entries = s.entries[evictCount:]
	return ActivityChangeSet{Removed: removed}
}

// RemoveMostRecent pops up to k tail entries (newest first out) and
// returns them as removed. A k larger than Len simply empties the set.
func (s *NodeMostRecentSet) RemoveMostRecent(k int) ActivityChangeSet {
	if k <= 0 {
		return ActivityChangeSet{}
	}
	if k > len(s.entries) {
		k = len(s.entries)
	}
	if k == 0 {
		return ActivityChangeSet{}
	}
	start := len(s.entries) - k
	removed := make([]Activity, k)
	// Report in "most recent first" order to match the name of the call.
	for i := 0; i < k; i++ {
		removed[i] = s.entries[len(s.entries)-1-i]
	}
	s.entries = s.entries[:start]
	return ActivityChangeSet{Removed: removed}
}

// Dump returns a snapshot of the set, oldest first.
func (s *NodeMostRecentSet) Dump() []Activity {
	out := make([]Activity, len(s.entries))
	copy(out, s.entries)
	return out
}

// adopt appends an activity directly, bypassing admission policy. Used by
// KBucket.Split, which redistributes existing entries that are already
// known to satisfy every invariant and are handed over in ascending time
// order, so a plain append preserves sort order.
func (s *NodeMostRecentSet) adopt(a Activity) {
	s.entries = append(s.entries, a)
}

func (s *NodeMostRecentSet) validate(id Id) error {
	if id.Length() != s.localId.Length() {
		return fmt.Errorf("%w: id length %d does not match local id length %d",
			ErrInvalidId, id.Length(), s.localId.Length())
	}
	return nil
}
