package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, lines string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "hops.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestExecuteArgs_TriangleFindsCycle(t *testing.T) {
	path := writeInput(t, "A|B|claim1|200\nB|C|claim1|200\nC|A|claim1|200\n")

	var stdout, stderr bytes.Buffer
	code := ExecuteArgs("test", []string{path, "--buckets=4"}, &stdout, &stderr)
	require.Equalf(t, 0, code, "stderr=%s", stderr.String())
	require.Equal(t, "claim1,200,3\n", stdout.String())
}

func TestExecuteArgs_AcyclicPrintsEmptyLine(t *testing.T) {
	path := writeInput(t, "A|B|claim1|200\n")

	var stdout, stderr bytes.Buffer
	code := ExecuteArgs("test", []string{path}, &stdout, &stderr)
	require.Equalf(t, 0, code, "stderr=%s", stderr.String())
	require.Equal(t, "\n", stdout.String())
}

func TestExecuteArgs_MissingFileIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := ExecuteArgs("test", []string{"/no/such/file.txt"}, &stdout, &stderr)
	require.Equal(t, exitUsage, code)
}

func TestExecuteArgs_WrongArgCountIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := ExecuteArgs("test", []string{}, &stdout, &stderr)
	require.Equal(t, exitUsage, code)
}
