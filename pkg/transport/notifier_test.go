package transport

import (
	"math/big"
	"testing"

	"github.com/dustan1/kademlia/pkg/routing"
)

func mustId(t *testing.T, bitstring string) routing.Id {
	t.Helper()
	v, ok := new(big.Int).SetString(bitstring, 2)
	if !ok {
		t.Fatalf("invalid bitstring %q", bitstring)
	}
	id, err := routing.IdFromBigInt(v, len(bitstring))
	if err != nil {
		t.Fatalf("IdFromBigInt(%q): %v", bitstring, err)
	}
	return id
}

func mustNode(t *testing.T, bitstring string) routing.Node {
	t.Helper()
	n, err := routing.NewNode(mustId(t, bitstring), bitstring)
	if err != nil {
		t.Fatalf("NewNode(%q): %v", bitstring, err)
	}
	return n
}

// recordingSink collects every event it receives, in order, as
// "admitted:<id>", "evicted:<id>", "updated:<id>".
type recordingSink struct {
	events []string
}

func (s *recordingSink) PeerAdmitted(node routing.Node) { s.events = append(s.events, "admitted:"+node.Id.String()) }
func (s *recordingSink) PeerEvicted(node routing.Node)  { s.events = append(s.events, "evicted:"+node.Id.String()) }
func (s *recordingSink) PeerUpdated(node routing.Node)  { s.events = append(s.events, "updated:"+node.Id.String()) }

func assertEvents(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("want events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want events %v, got %v", want, got)
		}
	}
}

func TestNotifier_TouchReportsAdmission(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier(routing.NewRouter(mustId(t, "0000"), 2, 2, 2), sink)

	if _, err := n.Touch(1, mustNode(t, "1000")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	assertEvents(t, sink.events, "admitted:1000")
}

func TestNotifier_TouchReportsUpdateOnRefresh(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier(routing.NewRouter(mustId(t, "0000"), 2, 2, 2), sink)

	if _, err := n.Touch(1, mustNode(t, "1000")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	sink.events = nil

	if _, err := n.Touch(2, mustNode(t, "1000")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	assertEvents(t, sink.events, "updated:1000")
}

func TestNotifier_StaleWithEmptyCacheReportsEviction(t *testing.T) {
	// With no cache entries to promote, Stale still removes the node from
	// the live set (and locks its id), so the sink sees one eviction and
	// no admission.
	sink := &recordingSink{}
	n := NewNotifier(routing.NewRouter(mustId(t, "0000"), 1, 1, 1), sink)

	if _, err := n.Touch(1, mustNode(t, "1000")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	sink.events = nil

	if _, err := n.Stale(mustNode(t, "1000")); err != nil {
		t.Fatalf("Stale: %v", err)
	}
	assertEvents(t, sink.events, "evicted:1000")
}

func TestNotifier_StalePromotesCacheReportsEvictAndAdmit(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier(routing.NewRouter(mustId(t, "0000"), 1, 1, 1), sink)

	if _, err := n.Touch(1, mustNode(t, "1000")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if _, err := n.Touch(2, mustNode(t, "1001")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	sink.events = nil

	if _, err := n.Stale(mustNode(t, "1000")); err != nil {
		t.Fatalf("Stale: %v", err)
	}
	assertEvents(t, sink.events, "evicted:1000", "admitted:1001")
}

func TestNotifier_LockReportsNothing(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier(routing.NewRouter(mustId(t, "0000"), 2, 2, 2), sink)

	if _, err := n.Touch(1, mustNode(t, "1000")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	sink.events = nil

	if _, err := n.Lock(mustNode(t, "1000")); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	assertEvents(t, sink.events)

	if _, err := n.Unlock(mustNode(t, "1000")); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	assertEvents(t, sink.events)
}

func TestNotifier_NilSinkIsSafe(t *testing.T) {
	n := NewNotifier(routing.NewRouter(mustId(t, "0000"), 2, 2, 2), nil)
	if _, err := n.Touch(1, mustNode(t, "1000")); err != nil {
		t.Fatalf("Touch: %v", err)
	}
}

func TestNotifier_RouterExposesReadSurface(t *testing.T) {
	r := routing.NewRouter(mustId(t, "0000"), 2, 2, 2)
	n := NewNotifier(r, nil)
	if n.Router() != r {
		t.Fatal("expected Router() to return the wrapped router")
	}
}
