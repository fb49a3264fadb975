// Package reduce implements the global reducer: tracking the single best
// (claim_id, status_code, length) result across every group a run
// processes, with a strict-greater-than update rule and first-seen-wins on
// ties (spec.md §5).
package reduce

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// GroupResult is one (claim_id, status_code) group's outcome.
type GroupResult struct {
	ClaimID    string
	StatusCode string
	Length     int
	// CeilingHit is true if any SCC in this group's graph exhausted the
	// cycle searcher's node-expansion budget before finishing.
	CeilingHit bool
}

// Reducer accumulates GroupResults and keeps the best one seen. It is safe
// for concurrent use from the optional parallel-bucket mode (spec.md §5,
// "cycles-per-status may run in parallel with the reducer merging final
// answers under a mutex").
type Reducer struct {
	mu   sync.Mutex
	best GroupResult
	seen bool

	claimIDs      mapset.Set[string]
	byStatus      map[string]int
	groupsOffered int
}

// New builds an empty Reducer.
func New() *Reducer {
	return &Reducer{
		claimIDs: mapset.NewSet[string](),
		byStatus: make(map[string]int),
	}
}

// Offer records one group's result. The running best is replaced only when
// r.Length is strictly greater than the current best (first-seen-wins on
// ties, per spec.md §5's tie-breaking rule). The order in which groups reach
// Offer is not fixed across runs, even in sequential mode: bucket assignment
// uses a per-process hash seed and groups within a bucket are iterated from
// a Go map. Under parallel-bucket mode the order also depends on which
// goroutine calls Offer first (see SPEC_FULL.md §9).
func (rd *Reducer) Offer(r GroupResult) {
	rd.mu.Lock()
	defer rd.mu.Unlock()

	rd.groupsOffered++
	rd.claimIDs.Add(r.ClaimID)
	if r.Length > 0 {
		rd.byStatus[r.StatusCode]++
	}

	if !rd.seen || r.Length > rd.best.Length {
		rd.best = r
		rd.seen = true
	}
}

// Best returns the best result seen so far and whether any group produced a
// cycle at all.
func (rd *Reducer) Best() (GroupResult, bool) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.best, rd.seen && rd.best.Length > 0
}

// Summary is the end-of-run tally reported alongside the winning cycle.
type Summary struct {
	DistinctClaims  int
	GroupsOffered   int
	GroupsWithCycle map[string]int
}

// Summarize snapshots the reducer's running tallies.
func (rd *Reducer) Summarize() Summary {
	rd.mu.Lock()
	defer rd.mu.Unlock()

	byStatus := make(map[string]int, len(rd.byStatus))
	for k, v := range rd.byStatus {
		byStatus[k] = v
	}
	return Summary{
		DistinctClaims:  rd.claimIDs.Cardinality(),
		GroupsOffered:   rd.groupsOffered,
		GroupsWithCycle: byStatus,
	}
}
