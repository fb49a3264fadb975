// Package scc finds strongly connected components of a group graph with an
// iterative (explicit work-stack) Tarjan algorithm, as required by spec.md
// §4.5 — groups may contain deep chains that would blow a recursive
// implementation's native call stack.
package scc

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/routehop/cyclefind/internal/graph"
)

var tracer = otel.Tracer("cyclefind/scc")

// Component is one strongly connected component: a list of vertex ids (the
// dense ids graph.Build assigned).
type Component struct {
	Vertices []int
}

// frame is the explicit work-stack entry Tarjan's algorithm needs to resume
// a vertex after a child descent: the vertex itself and how far into its
// adjacency list it has advanced.
type frame struct {
	vertex int
	pos    int
}

// Find returns every strongly connected component of g, iteratively.
func Find(ctx context.Context, g *graph.Graph) []Component {
	_, span := tracer.Start(ctx, "scc.Find")
	defer span.End()

	n := g.NumVertices()
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	stack := make([]int, 0, n)
	var components []Component
	counter := 0

	pushNew := func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		pushNew(root)
		work := []frame{{vertex: root, pos: 0}}

		for len(work) > 0 {
			top := &work[len(work)-1]
			adj := g.Adjacency[top.vertex]

			if top.pos < len(adj) {
				w := adj[top.pos]
				top.pos++
				switch {
				case index[w] == -1:
					pushNew(w)
					work = append(work, frame{vertex: w, pos: 0})
				case onStack[w]:
					if index[w] < lowlink[top.vertex] {
						lowlink[top.vertex] = index[w]
					}
				}
				continue
			}

			v := top.vertex
			work = work[:len(work)-1]

			if lowlink[v] == index[v] {
				var comp []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				components = append(components, Component{Vertices: comp})
			}

			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[v] < lowlink[parent.vertex] {
					lowlink[parent.vertex] = lowlink[v]
				}
			}
		}
	}

	return components
}

// NonTrivial filters components down to those the cycle searcher should
// look at: size >= 2, or a size-1 component whose sole vertex has a
// self-loop. All other singletons cannot host a cycle and are discarded
// (spec.md §4.5).
func NonTrivial(components []Component, selfLoop []bool) []Component {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		if len(c.Vertices) >= 2 {
			out = append(out, c)
			continue
		}
		if len(c.Vertices) == 1 && selfLoop[c.Vertices[0]] {
			out = append(out, c)
		}
	}
	return out
}
