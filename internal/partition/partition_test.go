package partition

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routehop/cyclefind/internal/groupread"
)

const sampleInput = `Epic|Availity|123|197
Availity|Optum|123|197
Optum|Epic|123|197
Epic|Availity|891|45
Availity|Epic|891|45
malformed-line
A|B|k|
`

func countEdges(t *testing.T, buckets []Bucket, compressed bool) int {
	t.Helper()
	total := 0
	for _, b := range buckets {
		groups, err := groupread.ReadBucket(b.Path, compressed)
		require.NoErrorf(t, err, "ReadBucket(%s)", b.Path)
		for _, edges := range groups {
			total += len(edges)
		}
	}
	return total
}

func TestRun_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{Dir: dir, BucketCount: 4})

	buckets, stats, err := p.Run(context.Background(), strings.NewReader(sampleInput))
	require.NoError(t, err)
	defer Cleanup(buckets)

	require.EqualValues(t, 5, stats.EdgesWritten)
	require.EqualValues(t, 2, stats.Skipped)
	require.Equal(t, 5, countEdges(t, buckets, false))
}

func TestRun_BucketCountDoesNotAffectTotalEdges(t *testing.T) {
	for _, n := range []int{1, 4, 128} {
		dir := t.TempDir()
		p := New(Config{Dir: dir, BucketCount: n})
		buckets, stats, err := p.Run(context.Background(), strings.NewReader(sampleInput))
		require.NoErrorf(t, err, "Run(B=%d)", n)
		require.Equalf(t, int(stats.EdgesWritten), countEdges(t, buckets, false), "B=%d", n)
		Cleanup(buckets)
	}
}

func TestRun_CompressedBucketsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{Dir: dir, BucketCount: 2, Compress: true})
	buckets, _, err := p.Run(context.Background(), strings.NewReader(sampleInput))
	require.NoError(t, err)
	defer Cleanup(buckets)

	require.Equal(t, 5, countEdges(t, buckets, true))
}

func TestRun_PartialBucketsRemovedOnInputError(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{Dir: dir, BucketCount: 2})
	_, _, err := p.Run(context.Background(), &failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		t.Errorf("leftover file after failed Run: %s", filepath.Join(dir, e.Name()))
	}
}

type failingReader struct{ n int }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.n == 0 {
		f.n++
		copy(p, []byte("A|B|1|1\n"))
		return 8, nil
	}
	return 0, os.ErrClosed
}
