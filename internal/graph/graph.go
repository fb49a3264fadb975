// Package graph builds the compact per-group directed graph that
// internal/scc and internal/cycle operate on: parallel edges collapsed to a
// simple graph, self-loops retained but flagged, vertices densely numbered
// in first-seen order.
package graph

import (
	"sort"

	"github.com/routehop/cyclefind/internal/hop"
)

// Graph is a group's edges as dense integer vertex ids with deduplicated,
// sorted adjacency lists — flat slices rather than a pointer graph, so
// dropping a group's graph is a single slice deallocation (see spec.md §9,
// "Arena-and-index discipline").
type Graph struct {
	// Names maps a vertex id (its index) back to the opaque name it was
	// built from.
	Names []string
	// Adjacency maps a vertex id to its sorted, deduplicated successor ids.
	Adjacency [][]int
	// SelfLoop marks vertices with an edge to themselves.
	SelfLoop []bool
}

// NumVertices returns the number of distinct vertices in the graph.
func (g *Graph) NumVertices() int {
	return len(g.Names)
}

// Build constructs a Graph from a group's edge list. The vertex set is
// exactly the union of endpoints appearing in edges (spec.md §3 invariant).
func Build(edges []hop.Edge) *Graph {
	ids := make(map[string]int)
	var names []string
	var successors []map[int]struct{}
	var selfLoop []bool

	vertexID := func(name string) int {
		if id, ok := ids[name]; ok {
			return id
		}
		id := len(names)
		ids[name] = id
		names = append(names, name)
		successors = append(successors, make(map[int]struct{}))
		selfLoop = append(selfLoop, false)
		return id
	}

	for _, e := range edges {
		s := vertexID(e.Source)
		d := vertexID(e.Destination)
		if s == d {
			selfLoop[s] = true
		}
		successors[s][d] = struct{}{}
	}

	adjacency := make([][]int, len(names))
	for id, succ := range successors {
		list := make([]int, 0, len(succ))
		for v := range succ {
			list = append(list, v)
		}
		sort.Ints(list)
		adjacency[id] = list
	}

	return &Graph{Names: names, Adjacency: adjacency, SelfLoop: selfLoop}
}
