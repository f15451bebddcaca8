// Package graph tracks references between linked bodies.
//
// It records which body references which, finds the bodies reachable from
// the emitted roots and counts the live incoming references of every body,
// which is what the inlining decision is based on.
package graph

// Graph is a directed reference graph over comparable keys. Edges keep their
// insertion order so every query is deterministic.
// Thread-safe for reads after Freeze.
type Graph[K comparable] struct {
	// edges maps a body to the references it contains
	edges map[K][]Edge[K]

	// incoming maps a body to the references that target it
	incoming map[K][]Edge[K]

	// roots are bodies emitted regardless of references
	roots map[K]bool

	// live is the closure of roots, computed by Freeze
	live map[K]bool

	nodes []K
}

// Edge is one reference from From to To. Uncounted edges keep To alive but
// do not count as an inlining site.
type Edge[K comparable] struct {
	From    K
	To      K
	Counted bool
}

// New creates an empty graph
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		edges:    make(map[K][]Edge[K]),
		incoming: make(map[K][]Edge[K]),
		roots:    make(map[K]bool),
	}
}

// AddNode registers a body. Root bodies are live unconditionally.
func (g *Graph[K]) AddNode(k K, root bool) {
	if _, seen := g.edges[k]; !seen {
		g.edges[k] = nil
		g.nodes = append(g.nodes, k)
	}
	if root {
		g.roots[k] = true
	}
}

// AddEdge records a reference.
func (g *Graph[K]) AddEdge(from, to K, counted bool) {
	g.AddNode(from, false)
	g.AddNode(to, false)
	e := Edge[K]{From: from, To: to, Counted: counted}
	g.edges[from] = append(g.edges[from], e)
	g.incoming[to] = append(g.incoming[to], e)
}

// Freeze computes liveness. The graph must not be modified afterwards.
func (g *Graph[K]) Freeze() {
	g.live = g.TransitiveCallees(g.roots)
}

// TransitiveCallees finds all bodies transitively referenced by any of the sources.
//
// Starting from a set of source bodies, this walks the graph forward
// to find all bodies that could be reached from them.
func (g *Graph[K]) TransitiveCallees(sources map[K]bool) map[K]bool {
	result := make(map[K]bool, len(sources))

	// Copy initial sources
	for s := range sources {
		result[s] = true
	}

	// Fixed-point iteration: keep expanding until no changes
	changed := true
	for changed {
		changed = false
		for caller := range result {
			for _, e := range g.edges[caller] {
				if !result[e.To] {
					result[e.To] = true
					changed = true
				}
			}
		}
	}

	return result
}

// IsLive reports whether k is reachable from a root.
func (g *Graph[K]) IsLive(k K) bool { return g.live[k] }

// IsRoot reports whether k was registered as a root.
func (g *Graph[K]) IsRoot(k K) bool { return g.roots[k] }

// LiveIncoming returns the counted references to k made from live bodies,
// in insertion order.
func (g *Graph[K]) LiveIncoming(k K) []Edge[K] {
	var out []Edge[K]
	for _, e := range g.incoming[k] {
		if e.Counted && g.live[e.From] {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns the references made by k, in insertion order.
func (g *Graph[K]) Outgoing(k K) []Edge[K] {
	return g.edges[k]
}

// Nodes returns every registered body in registration order.
func (g *Graph[K]) Nodes() []K {
	return append([]K(nil), g.nodes...)
}
