// Package graph maintains the symbol dependency graph and rejects
// additions that would close a cycle.
package graph

import (
	"fmt"
	"strings"
)

// #region errors
// CycleError reports a circular dependency with the full cycle path,
// closed by a repeat of its first node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular dependency detected: " + strings.Join(e.Path, " → ")
}

// #endregion errors

// #region types
// Edge is one dependency reference from a registered node.
type Edge struct {
	From string
	To   string
}

// Graph is an adjacency-list dependency graph preserving insertion
// order. References to nodes that are not yet added are allowed; they
// stay pending until the referenced node arrives (Unresolved lists the
// ones still dangling).
type Graph struct {
	adj   map[string][]string
	order []string
}

// #endregion types

// #region constructor
// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[string][]string)}
}

// #endregion constructor

// #region add
// Add inserts a node with its dependencies. If the insertion closes a
// cycle the graph is left unchanged and the returned *CycleError
// carries the cycle path.
func (g *Graph) Add(id string, deps []string) error {
	if _, ok := g.adj[id]; ok {
		return fmt.Errorf("node %q already in graph", id)
	}
	g.adj[id] = append([]string(nil), deps...)
	g.order = append(g.order, id)
	if cycle := g.findCycle(); cycle != nil {
		delete(g.adj, id)
		g.order = g.order[:len(g.order)-1]
		return &CycleError{Path: cycle}
	}
	return nil
}

// #endregion add

// #region accessors
// Has reports whether a node was added.
func (g *Graph) Has(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Nodes returns all node IDs in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Dependencies returns the dependency list of a node in declared order.
func (g *Graph) Dependencies(id string) []string {
	deps, ok := g.adj[id]
	if !ok || len(deps) == 0 {
		return nil
	}
	return append([]string(nil), deps...)
}

// #endregion accessors

// #region satisfied
// Satisfied reports whether every dependency of id is in the activated
// set. Nodes never added have no dependencies and pass trivially.
func (g *Graph) Satisfied(id string, activated map[string]bool) bool {
	for _, dep := range g.adj[id] {
		if !activated[dep] {
			return false
		}
	}
	return true
}

// #endregion satisfied

// #region unresolved
// Unresolved returns every dependency reference that does not name an
// added node, in insertion order.
func (g *Graph) Unresolved() []Edge {
	var out []Edge
	for _, id := range g.order {
		for _, dep := range g.adj[id] {
			if _, ok := g.adj[dep]; !ok {
				out = append(out, Edge{From: id, To: dep})
			}
		}
	}
	return out
}

// #endregion unresolved

// #region cycle-detection
// findCycle runs DFS over nodes in insertion order and returns the
// first cycle found. Edges to nodes never added cannot close a cycle
// and are skipped.
func (g *Graph) findCycle() []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(g.order))
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = inStack
		path = append(path, id)
		for _, dep := range g.adj[id] {
			if _, ok := g.adj[dep]; !ok {
				continue
			}
			switch state[dep] {
			case unvisited:
				if visit(dep) {
					return true
				}
			case inStack:
				for i, node := range path {
					if node == dep {
						cycle = append(append([]string(nil), path[i:]...), dep)
						return true
					}
				}
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return false
	}

	for _, id := range g.order {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// #endregion cycle-detection
