// Package groupread reads one bucket file produced by internal/partition
// and groups its edges by (claim_id, status_code), yielding one group at a
// time so the caller can process and release it before the next is read —
// at most one bucket's contents are ever resident at once.
package groupread

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/routehop/cyclefind/internal/hop"
)

var tracer = otel.Tracer("cyclefind/groupread")

// ReadBucket loads every valid line of the bucket file at path and returns
// its edges grouped by key. Lines within a group retain input order.
func ReadBucket(path string, compressed bool) (map[hop.Key][]hop.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("groupread: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("groupread: init zstd for %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}

	groups := make(map[hop.Key][]hop.Edge)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		edge, ok := hop.Parse(line)
		if !ok {
			continue
		}
		key := hop.Key{ClaimID: edge.ClaimID, StatusCode: edge.StatusCode}
		groups[key] = append(groups[key], edge)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("groupread: read %s: %w", path, err)
	}
	return groups, nil
}

// Groups returns an iterator over groups that deletes each group from m as
// soon as it has been yielded, so a caller ranging over it and discarding
// its per-group graph afterward never holds more than one group's edges
// plus the (shrinking) remainder of the bucket in memory at once.
//
// Iteration order over groups is unspecified, matching spec.md §4.3.
func Groups(m map[hop.Key][]hop.Edge) iter.Seq2[hop.Key, []hop.Edge] {
	return func(yield func(hop.Key, []hop.Edge) bool) {
		for k, v := range m {
			if !yield(k, v) {
				return
			}
			delete(m, k)
		}
	}
}

// LoadAndIterate is a convenience wrapper: it reads bucketPath and, for each
// group, invokes fn after logging bucket-scoped progress. It is the shape
// internal/detector drives directly.
func LoadAndIterate(ctx context.Context, bucketPath string, compressed bool, fn func(hop.Key, []hop.Edge) error) error {
	ctx, span := tracer.Start(ctx, "groupread.LoadAndIterate")
	defer span.End()
	log := ctxzap.Extract(ctx)

	groups, err := ReadBucket(bucketPath, compressed)
	if err != nil {
		return err
	}
	log.Debug("loaded bucket", zap.String("bucket", bucketPath), zap.Int("group_count", len(groups)))

	for key, edges := range Groups(groups) {
		if err := fn(key, edges); err != nil {
			return fmt.Errorf("groupread: group %s: %w", key, err)
		}
	}
	return nil
}
