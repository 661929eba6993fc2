package routing

import "testing"

func TestNewNode_RejectsEmptyLink(t *testing.T) {
	id := mustId(t, "1010")
	if _, err := NewNode(id, ""); err == nil {
		t.Fatal("expected error for empty link")
	}
}

func TestNewNode(t *testing.T) {
	id := mustId(t, "1010")
	n, err := NewNode(id, "10.0.0.1:9000")
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if n.Link != "10.0.0.1:9000" || !n.Id.Equal(id) {
		t.Fatalf("unexpected node: %+v", n)
	}
}
