package routing

import "testing"

func touchOK(t *testing.T, s *NodeMostRecentSet, time int64, id, link string) ActivityChangeSet {
	t.Helper()
	n, err := NewNode(mustId(t, id), link)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	cs, err := s.Touch(time, n)
	if err != nil {
		t.Fatalf("Touch(%s): %v", id, err)
	}
	return cs
}

func TestNodeMostRecentSet_AdmitsUntilFull(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 2)

	cs := touchOK(t, s, 1, "1000", "A")
	if len(cs.Added) != 1 {
		t.Fatalf("expected admission, got %+v", cs)
	}
	touchOK(t, s, 2, "1001", "A")
	if s.Len() != 2 {
		t.Fatalf("Len(): want 2, got %d", s.Len())
	}
}

func TestNodeMostRecentSet_EvictsOldestOnOverflow(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 2)
	touchOK(t, s, 1, "1000", "A")
	touchOK(t, s, 2, "1001", "A")

	cs := touchOK(t, s, 3, "1010", "A")
	if len(cs.Added) != 1 || len(cs.Removed) != 1 {
		t.Fatalf("expected one add and one evict, got %+v", cs)
	}
	if cs.Removed[0].Node.Id.String() != "1000" {
		t.Fatalf("expected 1000 (oldest) evicted, got %s", cs.Removed[0].Node.Id)
	}
	if _, ok := s.Contains(mustId(t, "1001")); !ok {
		t.Fatal("1001 should still be present")
	}
}

func TestNodeMostRecentSet_TiedTimesFIFO(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 2)
	touchOK(t, s, 0, "1111", "A")
	touchOK(t, s, 0, "1110", "A")
	touchOK(t, s, 0, "1101", "A")
	touchOK(t, s, 0, "1100", "A")

	dump := s.Dump()
	if len(dump) != 2 || dump[0].Node.Id.String() != "1101" || dump[1].Node.Id.String() != "1100" {
		t.Fatalf("expected the last two touched to survive a FIFO window, got %+v", dump)
	}
}

func TestNodeMostRecentSet_LinkConflict(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 2)
	touchOK(t, s, 1, "1000", "A")
	n, _ := NewNode(mustId(t, "1000"), "B")
	if _, err := s.Touch(2, n); err == nil {
		t.Fatal("expected link conflict error")
	}
}

func TestNodeMostRecentSet_LocalIdIsNoOp(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 2)
	n, _ := NewNode(local, "A")
	cs, err := s.Touch(1, n)
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if !cs.IsEmpty() || s.Len() != 0 {
		t.Fatal("touching the local id should be a no-op")
	}
}

func TestNodeMostRecentSet_RemoveMostRecent(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 3)
	touchOK(t, s, 1, "1000", "A")
	touchOK(t, s, 2, "1001", "A")
	touchOK(t, s, 3, "1010", "A")

	cs := s.RemoveMostRecent(2)
	if len(cs.Removed) != 2 || cs.Removed[0].Node.Id.String() != "1010" || cs.Removed[1].Node.Id.String() != "1001" {
		t.Fatalf("expected most-recent-first removal, got %+v", cs.Removed)
	}
	if s.Len() != 1 {
		t.Fatalf("Len(): want 1, got %d", s.Len())
	}
}

func TestNodeMostRecentSet_RemoveMostRecent_MoreThanLen(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 3)
	touchOK(t, s, 1, "1000", "A")

	cs := s.RemoveMostRecent(5)
	if len(cs.Removed) != 1 {
		t.Fatalf("expected a single removal, got %+v", cs.Removed)
	}
	if s.Len() != 0 {
		t.Fatal("expected set to be emptied")
	}
}

func TestNodeMostRecentSet_Resize_Shrinks_EvictsOldest(t *testing.T) {
	local := mustId(t, "0000")
	s := NewNodeMostRecentSet(local, 3)
	touchOK(t, s, 1, "1000", "A")
	touchOK(t, s, 2, "1001", "A")
	touchOK(t, s, 3, "1010", "A")

	cs := s.Resize(1)
	if len(cs.Removed) != 2 {
		t.Fatalf("expected two evictions, got %+v", cs.Removed)
	}
	if s.Len() != 1 {
		t.Fatalf("Len(): want 1, got %d", s.Len())
	}
	if _, ok := s.Contains(mustId(t, "1010")); !ok {
		t.Fatal("expected the newest entry to survive shrinking")
	}
}
