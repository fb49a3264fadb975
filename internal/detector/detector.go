// Package detector orchestrates the full cyclefind pipeline: partitioning
// the input into hash buckets, replaying each bucket's groups, and running
// SCC discovery plus the longest-cycle search over every group, reducing to
// one global answer (spec.md §§2-6).
package detector

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/routehop/cyclefind/internal/cycle"
	"github.com/routehop/cyclefind/internal/diag"
	"github.com/routehop/cyclefind/internal/graph"
	"github.com/routehop/cyclefind/internal/groupread"
	"github.com/routehop/cyclefind/internal/hop"
	"github.com/routehop/cyclefind/internal/partition"
	"github.com/routehop/cyclefind/internal/reduce"
	"github.com/routehop/cyclefind/internal/scc"
)

var tracer = otel.Tracer("cyclefind/detector")

// UsageError signals a problem with the caller-supplied configuration
// (bad flag value, missing input) — maps to exit code 2.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// IOError signals a failure reading, partitioning, or writing data —
// maps to exit code 1.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// Options configures one Run.
type Options struct {
	BucketDir   string
	Buckets     int
	Compress    bool
	SCCCeiling  int
	Parallel    int
	Diagnostics bool
}

// AnalysisResult is the full outcome of one run, not just the winning
// cycle: it also carries the run-wide tallies (distinct claim ids, groups
// offered, groups with a cycle per status code, ceiling hits) that the CLI
// feeds into its end-of-run metrics summary.
type AnalysisResult struct {
	Winner         reduce.GroupResult
	Found          bool
	DistinctClaims int
	GroupsOffered  int
	GroupsByStatus map[string]int
	CeilingHits    int
}

// Run executes the full pipeline against input, an io.Reader over the hop log
// (already staged locally by internal/ingest), and returns the best
// (claim_id, status_code, length) triple found across every group.
func Run(ctx context.Context, input io.Reader, opts Options) (AnalysisResult, error) {
	ctx, span := tracer.Start(ctx, "detector.Run")
	defer span.End()
	l := ctxzap.Extract(ctx)

	if opts.Buckets <= 0 {
		opts.Buckets = partition.DefaultBucketCount
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 1
	}

	part := partition.New(partition.Config{
		Dir:         opts.BucketDir,
		BucketCount: opts.Buckets,
		Compress:    opts.Compress,
	})

	buckets, stats, err := part.Run(ctx, input)
	if err != nil {
		return AnalysisResult{}, &IOError{Op: "partitioning input", Err: err}
	}
	defer partition.Cleanup(buckets)

	l.Info("partitioning complete",
		zap.Int64("lines_read", stats.LinesRead),
		zap.Int64("edges_written", stats.EdgesWritten),
		zap.Int64("skipped", stats.Skipped),
		zap.Int("buckets", len(buckets)),
	)

	rd := reduce.New()
	searcher := cycle.NewSearcher(opts.SCCCeiling)
	progress := diag.NewProgress(len(buckets))

	var ceilingHits atomic.Int32
	processBucket := func(ctx context.Context, b partition.Bucket) error {
		err := groupread.LoadAndIterate(ctx, b.Path, opts.Compress, func(key hop.Key, edges []hop.Edge) error {
			result := processGroup(ctx, searcher, key, edges)
			rd.Offer(result)
			if result.CeilingHit {
				ceilingHits.Add(1)
			}
			progress.GroupDone(ctx)
			return nil
		})
		if err != nil {
			return &IOError{Op: fmt.Sprintf("reading bucket %s", b.Path), Err: err}
		}
		progress.BucketDone(ctx)
		return nil
	}

	if opts.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Parallel)
		for _, b := range buckets {
			b := b
			g.Go(func() error { return processBucket(gctx, b) })
		}
		if err := g.Wait(); err != nil {
			return AnalysisResult{}, err
		}
	} else {
		for _, b := range buckets {
			if err := processBucket(ctx, b); err != nil {
				return AnalysisResult{}, err
			}
		}
	}

	winner, found := rd.Best()
	summary := rd.Summarize()

	if opts.Diagnostics {
		diag.LogMemory(ctx, "run complete")
	}

	return AnalysisResult{
		Winner:         winner,
		Found:          found,
		DistinctClaims: summary.DistinctClaims,
		GroupsOffered:  summary.GroupsOffered,
		GroupsByStatus: summary.GroupsWithCycle,
		CeilingHits:    int(ceilingHits.Load()),
	}, nil
}

// processGroup runs SCC discovery and the longest-cycle search over one
// (claim_id, status_code) group's deduplicated edge graph, per spec.md
// §§4.5-4.6.
func processGroup(ctx context.Context, searcher *cycle.Searcher, key hop.Key, edges []hop.Edge) reduce.GroupResult {
	g := graph.Build(edges)
	components := scc.NonTrivial(scc.Find(ctx, g), g.SelfLoop)

	best := 0
	ceilingHit := false
	for _, c := range components {
		r := searcher.Longest(ctx, g, c)
		if r.Length > best {
			best = r.Length
		}
		if r.CeilingHit {
			ceilingHit = true
			ctxzap.Extract(ctx).Warn("cycle search stopped before finishing",
				zap.String("claim_id", key.ClaimID),
				zap.String("status_code", key.StatusCode),
				zap.Int("scc_size", len(c.Vertices)),
			)
		}
	}

	return reduce.GroupResult{
		ClaimID:    key.ClaimID,
		StatusCode: key.StatusCode,
		Length:     best,
		CeilingHit: ceilingHit,
	}
}
