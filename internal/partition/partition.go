// Package partition implements the streaming hash-partitioner: a single
// pass over the input that shards edges into bounded-size on-disk bucket
// files by a hash of (claim_id, status_code), so phase two never needs the
// whole input resident at once.
package partition

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dolthub/maphash"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/routehop/cyclefind/internal/hop"
)

var tracer = otel.Tracer("cyclefind/partition")

// DefaultBucketCount is the design constant B from spec.md §4.2: large
// enough that a bucket of a ~10^8-line input fits comfortably in RAM, small
// enough to keep the open-file-handle count modest. Correctness never
// depends on this value — see Stats.BucketCount and the property test that
// runs the same input at B=1, B=4, and B=128.
const DefaultBucketCount = 128

// Bucket is one on-disk shard produced by a Run.
type Bucket struct {
	Index int
	Path  string
}

// Stats summarizes one partitioning pass.
type Stats struct {
	LinesRead    int64
	EdgesWritten int64
	Skipped      int64
	BucketCount  int
}

// Config controls a Partitioner.
type Config struct {
	// Dir is the directory bucket files are created in. Must already exist.
	Dir string
	// BucketCount is B. Zero selects DefaultBucketCount.
	BucketCount int
	// Compress zstd-compresses each bucket file as it is written, trading
	// CPU for disk: useful when the per-bucket edge list is large relative
	// to available temp-disk space.
	Compress bool
}

// Partitioner shards an input stream into Config.BucketCount bucket files.
type Partitioner struct {
	cfg    Config
	hasher maphash.Hasher[string]
}

// New builds a Partitioner from cfg, defaulting BucketCount to
// DefaultBucketCount.
func New(cfg Config) *Partitioner {
	if cfg.BucketCount <= 0 {
		cfg.BucketCount = DefaultBucketCount
	}
	return &Partitioner{
		cfg:    cfg,
		hasher: maphash.NewHasher[string](),
	}
}

type bucketWriter struct {
	file    *os.File
	zstdEnc *zstd.Encoder
	buf     *bufio.Writer
}

func (b *bucketWriter) writer() io.Writer {
	return b.buf
}

func (b *bucketWriter) close() error {
	if err := b.buf.Flush(); err != nil {
		_ = b.closeEncoders()
		return err
	}
	return b.closeEncoders()
}

func (b *bucketWriter) closeEncoders() error {
	var err error
	if b.zstdEnc != nil {
		err = b.zstdEnc.Close()
	}
	if cerr := b.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Run streams r line by line, writing each valid line to exactly one bucket
// file. It returns the created buckets and aggregate Stats. I/O errors on
// the input read or on any bucket write are fatal, per spec.md §4.2: on any
// error Run removes every bucket file it created and returns nil buckets.
func (p *Partitioner) Run(ctx context.Context, r io.Reader) ([]Bucket, Stats, error) {
	ctx, span := tracer.Start(ctx, "Partitioner.Run")
	defer span.End()
	log := ctxzap.Extract(ctx)

	n := p.cfg.BucketCount
	writers := make([]*bucketWriter, n)
	buckets := make([]Bucket, n)

	cleanupPartial := func() {
		for i, w := range writers {
			if w != nil {
				_ = w.close()
			}
			if buckets[i].Path != "" {
				_ = os.Remove(buckets[i].Path)
			}
		}
	}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("bucket-%04d.txt", i)
		if p.cfg.Compress {
			name += ".zst"
		}
		path := filepath.Join(p.cfg.Dir, name)
		f, err := os.Create(path)
		if err != nil {
			cleanupPartial()
			return nil, Stats{}, fmt.Errorf("partition: create bucket %d: %w", i, err)
		}
		buckets[i] = Bucket{Index: i, Path: path}
		bw := &bucketWriter{file: f}
		if p.cfg.Compress {
			enc, err := zstd.NewWriter(f)
			if err != nil {
				cleanupPartial()
				return nil, Stats{}, fmt.Errorf("partition: init zstd for bucket %d: %w", i, err)
			}
			bw.zstdEnc = enc
			bw.buf = bufio.NewWriter(enc)
		} else {
			bw.buf = bufio.NewWriter(f)
		}
		writers[i] = bw
	}

	var stats Stats
	stats.BucketCount = n

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stats.LinesRead++
		if line == "" {
			continue
		}
		key, ok := hop.KeyOf(line)
		if !ok {
			stats.Skipped++
			log.Debug("skipping malformed line", zap.Int64("line_number", stats.LinesRead))
			continue
		}
		idx := p.bucketIndex(key)
		if _, err := fmt.Fprintln(writers[idx].writer(), line); err != nil {
			cleanupPartial()
			return nil, Stats{}, fmt.Errorf("partition: write bucket %d: %w", idx, err)
		}
		stats.EdgesWritten++
	}
	if err := scanner.Err(); err != nil {
		cleanupPartial()
		return nil, Stats{}, fmt.Errorf("partition: read input: %w", err)
	}

	for i, w := range writers {
		if err := w.close(); err != nil {
			cleanupPartial()
			return nil, Stats{}, fmt.Errorf("partition: close bucket %d: %w", i, err)
		}
	}

	log.Info("partitioned input",
		zap.Int64("lines_read", stats.LinesRead),
		zap.Int64("edges_written", stats.EdgesWritten),
		zap.Int64("skipped", stats.Skipped),
		zap.Int("bucket_count", n),
	)
	return buckets, stats, nil
}

// bucketIndex hashes (claim_id, status_code) deterministically within this
// process run. Cross-run stability is not required by spec.md §4.2, and
// maphash.Hasher intentionally reseeds on every process start.
func (p *Partitioner) bucketIndex(key hop.Key) int {
	h := p.hasher.Hash(key.ClaimID + "\x00" + key.StatusCode)
	return int(h % uint64(p.cfg.BucketCount))
}

// Cleanup removes every bucket file, ignoring already-removed entries. It is
// safe to call after a partial or complete Run.
func Cleanup(buckets []Bucket) {
	for _, b := range buckets {
		_ = os.Remove(b.Path)
	}
}
