// Package cycle implements the longest-simple-cycle search bounded to one
// strongly connected component, per spec.md §4.6.
package cycle

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/routehop/cyclefind/internal/graph"
	"github.com/routehop/cyclefind/internal/scc"
)

var tracer = otel.Tracer("cyclefind/cycle")

// DefaultNodeCeiling bounds DFS-frame expansions per SCC so a pathological
// dense component cannot hang the process indefinitely (spec.md §9's first
// open question — see SPEC_FULL.md's decision record for why this, rather
// than an SCC-size upper-bound fallback, is what we return on overrun).
const DefaultNodeCeiling = 200_000

// Searcher finds the longest simple directed cycle within an SCC.
type Searcher struct {
	// NodeCeiling bounds DFS-frame expansions per SCC. Zero means no bound.
	NodeCeiling int
}

// NewSearcher builds a Searcher with the given per-SCC node-expansion
// ceiling. ceiling <= 0 selects DefaultNodeCeiling.
func NewSearcher(ceiling int) *Searcher {
	if ceiling <= 0 {
		ceiling = DefaultNodeCeiling
	}
	return &Searcher{NodeCeiling: ceiling}
}

// Result is the outcome of searching one SCC.
type Result struct {
	// Length is the longest simple cycle length found, 0 if none.
	Length int
	// CeilingHit is true if the node-expansion budget was exhausted, or the
	// context was cancelled, before every root finished its search. Length
	// is still the best answer found up to that point, never an unverified
	// upper bound.
	CeilingHit bool
}

// Longest searches comp (an SCC of g) and returns the longest simple cycle
// it contains.
func (s *Searcher) Longest(ctx context.Context, g *graph.Graph, comp scc.Component) Result {
	ctx, span := tracer.Start(ctx, "cycle.Searcher.Longest")
	defer span.End()

	vertices := comp.Vertices
	if len(vertices) == 1 {
		v := vertices[0]
		if g.SelfLoop[v] {
			return Result{Length: 1}
		}
		return Result{Length: 0}
	}

	member := make([]bool, g.NumVertices())
	for _, v := range vertices {
		member[v] = true
	}

	size := len(vertices)
	onPath := make([]bool, g.NumVertices())
	path := make([]int, 0, size)

	d := &dfsState{
		g:       g,
		member:  member,
		onPath:  onPath,
		path:    &path,
		ceiling: s.NodeCeiling,
	}

	for _, root := range vertices {
		if d.maxLen >= size {
			break // cannot do better than the whole SCC
		}
		select {
		case <-ctx.Done():
			return Result{Length: d.maxLen, CeilingHit: true}
		default:
		}

		d.path = &path
		d.run(root)

		if d.stopped {
			break
		}
	}

	return Result{Length: d.maxLen, CeilingHit: d.stopped}
}

// dfsState holds the mutable search state shared across every root's
// iterative search. Dense vertex ids back every slice here, so the hot
// path is pure array indexing with zero per-step allocation.
type dfsState struct {
	g       *graph.Graph
	member  []bool
	onPath  []bool
	path    *[]int
	ceiling int

	expansions int
	maxLen     int
	stopped    bool
}

// searchFrame is the explicit work-stack entry for the cycle DFS: the
// vertex being explored and how far into its adjacency list the search has
// advanced. Both SCC discovery and this cycle search must avoid native
// recursion (spec.md §9, "Iterative traversal") since a group can produce
// chains deep enough to exhaust the call stack.
type searchFrame struct {
	vertex int
	pos    int
}

// run explores every simple path rooted at root, looking for edges back to
// root. Successors with a vertex id less than root are skipped: every
// simple cycle has a unique minimum-id vertex, so rooting the search only
// at that vertex and only descending to higher ids sees each cycle exactly
// once (spec.md §9, "Rotational-symmetry pruning").
func (d *dfsState) run(root int) {
	d.onPath[root] = true
	*d.path = append(*d.path, root)
	work := []searchFrame{{vertex: root, pos: 0}}

	for len(work) > 0 {
		if d.stopped {
			break
		}
		top := &work[len(work)-1]
		adj := d.g.Adjacency[top.vertex]

		if top.pos >= len(adj) {
			v := top.vertex
			work = work[:len(work)-1]
			d.onPath[v] = false
			*d.path = (*d.path)[:len(*d.path)-1]
			continue
		}

		w := adj[top.pos]
		top.pos++

		if d.ceiling > 0 {
			d.expansions++
			if d.expansions >= d.ceiling {
				d.stopped = true
				break
			}
		}

		if !d.member[w] || w < root {
			continue
		}
		if w == root {
			if l := len(*d.path); l > d.maxLen {
				d.maxLen = l
			}
			continue
		}
		if d.onPath[w] {
			continue
		}
		d.onPath[w] = true
		*d.path = append(*d.path, w)
		work = append(work, searchFrame{vertex: w, pos: 0})
	}
}
