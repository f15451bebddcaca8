package graph

import (
	"testing"
)

func TestLiveness(t *testing.T) {
	g := New[string]()
	g.AddNode("public", true)
	g.AddEdge("public", "L2", true)
	g.AddEdge("L2", "L1", true)
	g.AddEdge("L1", "original", true)
	g.AddEdge("orphan", "L1", true)
	g.Freeze()

	for _, k := range []string{"public", "L2", "L1", "original"} {
		if !g.IsLive(k) {
			t.Errorf("%s should be live", k)
		}
	}
	if g.IsLive("orphan") {
		t.Error("orphan should not be live")
	}
	if got := len(g.LiveIncoming("L1")); got != 1 {
		t.Errorf("L1 live incoming = %d, want 1 (dead caller ignored)", got)
	}
}

func TestUncountedEdgesKeepAlive(t *testing.T) {
	g := New[string]()
	g.AddNode("helper", true)
	g.AddEdge("helper", "public", false)
	g.AddEdge("public", "L1", true)
	g.Freeze()

	if !g.IsLive("L1") {
		t.Fatal("L1 should be live through an uncounted edge")
	}
	if got := len(g.LiveIncoming("public")); got != 0 {
		t.Errorf("public counted incoming = %d, want 0", got)
	}
}

func TestTransitiveCalleesHandlesCycles(t *testing.T) {
	g := New[int]()
	g.AddEdge(1, 2, true)
	g.AddEdge(2, 3, true)
	g.AddEdge(3, 1, true)
	g.AddEdge(4, 1, true)

	got := g.TransitiveCallees(map[int]bool{2: true})
	if len(got) != 3 || !got[1] || !got[2] || !got[3] || got[4] {
		t.Errorf("TransitiveCallees = %v, want {1 2 3}", got)
	}
}

func TestNodesKeepRegistrationOrder(t *testing.T) {
	g := New[string]()
	g.AddEdge("b", "a", true)
	g.AddNode("c", false)
	g.AddNode("b", true)

	nodes := g.Nodes()
	want := []string{"b", "a", "c"}
	if len(nodes) != len(want) {
		t.Fatalf("Nodes = %v, want %v", nodes, want)
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Errorf("Nodes[%d] = %s, want %s", i, nodes[i], want[i])
		}
	}
	if !g.IsRoot("b") {
		t.Error("b should be a root after AddNode(root=true)")
	}
}
