package groupread

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routehop/cyclefind/internal/hop"
)

func writeBucket(t *testing.T, lines string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bucket.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestReadBucket_GroupsByKey(t *testing.T) {
	path := writeBucket(t, "A|B|1|1\nB|C|1|1\nX|Y|2|2\n")
	groups, err := ReadBucket(path, false)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	k1 := hop.Key{ClaimID: "1", StatusCode: "1"}
	require.Len(t, groups[k1], 2)
}

func TestGroups_DropsEntryAfterYield(t *testing.T) {
	m := map[hop.Key][]hop.Edge{
		{ClaimID: "1", StatusCode: "1"}: {{Source: "A", Destination: "B"}},
	}
	for range Groups(m) {
	}
	require.Empty(t, m)
}

func TestLoadAndIterate_VisitsEveryGroup(t *testing.T) {
	path := writeBucket(t, "A|B|1|1\nB|A|1|1\nX|Y|2|2\n")
	seen := map[hop.Key]int{}
	err := LoadAndIterate(context.Background(), path, false, func(k hop.Key, edges []hop.Edge) error {
		seen[k] = len(edges)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
}
