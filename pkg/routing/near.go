package routing

import (
	"fmt"
	"sort"
)

// nearSet is a bounded set of Activities ranked by XOR distance to a
// fixed local id, closest first. Unlike NodeMostRecentSet/
// NodeLeastRecentSet it does not order by time at all: time is carried
// through Activity purely as caller-supplied bookkeeping. Admission
// keeps the capacity closest ids ever observed — a brand-new id is
// accepted while there is room, and once full it is only accepted if it
// is strictly closer to the local id than the set's current farthest
// member, which is evicted to make room.
//
// This shape is what makes the Router's near set actually deliver on
// "retains the globally closest peers observed" regardless of the order
// peers are discovered in: a pure recency-bounded set does not have that
// property, since discovery order and closeness are independent.
type nearSet struct {
	localId  Id
	capacity int
	entries  []Activity
}

func newNearSet(localId Id, capacity int) *nearSet {
	return &nearSet{localId: localId, capacity: capacity}
}

func (s *nearSet) Len() int { return len(s.entries) }

func (s *nearSet) distance(id Id) Id { return id.Xor(s.localId) }

func (s *nearSet) indexOf(id Id) int {
	for i, a := range s.entries {
		if a.Node.Id.Equal(id) {
			return i
		}
	}
	return -1
}

// Contains is a pure query: it reports the stored Activity for id
// without modifying the set.
func (s *nearSet) Contains(id Id) (Activity, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return Activity{}, false
}

// insertSorted inserts a into entries, keeping ascending order by
// distance to the local id, breaking ties by id magnitude.
func (s *nearSet) insertSorted(a Activity) {
	dist := s.distance(a.Node.Id)
	pos := sort.Search(len(s.entries), func(i int) bool {
		d := s.distance(s.entries[i].Node.Id)
		if c := d.CompareMagnitude(dist); c != 0 {
			return c > 0
		}
		return s.entries[i].Node.Id.CompareMagnitude(a.Node.Id) > 0
	})
	s.entries = append(s.entries, Activity{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = a
}

// Touch records an observation of node at time. An id already tracked is
// refreshed in place (its distance to the local id cannot change, so its
// position does not move). A new id is admitted if there is room, or —
// once full — only if it is strictly closer to the local id than the
// set's current farthest member, which is then evicted.
func (s *nearSet) Touch(t int64, node Node) (ActivityChangeSet, error) {
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
		s.entries[i] = Activity{Node: node, Time: t}
		return ActivityChangeSet{Updated: []Activity{existing}}, nil
	}

	newEntry := Activity{Node: node, Time: t}

	if len(s.entries) < s.capacity {
		s.insertSorted(newEntry)
		return ActivityChangeSet{Added: []Activity{newEntry}}, nil
	}

	farthest := s.entries[len(s.entries)-1]
	if s.distance(node.Id).CompareMagnitude(s.distance(farthest.Node.Id)) >= 0 {
		return ActivityChangeSet{}, nil
	}

	s.entries = s.entries[:len(s.entries)-1]
	s.insertSorted(newEntry)
	return ActivityChangeSet{Added: []Activity{newEntry}, Removed: []Activity{farthest}}, nil
}

// Remove deletes node's entry if present.
func (s *nearSet) Remove(node Node) (ActivityChangeSet, error) {
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

// Dump returns a snapshot of the set, closest to the local id first.
func (s *nearSet) Dump() []Activity {
	out := make([]Activity, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *nearSet) validate(id Id) error {
	if id.Length() != s.localId.Length() {
		return fmt.Errorf("%w: id length %d does not match local id length %d",
			ErrInvalidId, id.Length(), s.localId.Length())
	}
	return nil
}
