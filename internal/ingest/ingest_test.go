package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_LocalPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hops.txt")
	require.NoError(t, os.WriteFile(path, []byte("A|B|1|1\n"), 0o644))

	staged, err := Resolve(context.Background(), path, dir)
	require.NoError(t, err)
	defer staged.Cleanup()
	require.Equal(t, path, staged.Path)
}

func TestResolve_MissingLocalPathIsUsageError(t *testing.T) {
	_, err := Resolve(context.Background(), "/no/such/file.txt", t.TempDir())
	require.Error(t, err)
	require.IsType(t, &UsageError{}, err)
}

func TestResolve_EmptyInputIsUsageError(t *testing.T) {
	_, err := Resolve(context.Background(), "", t.TempDir())
	require.IsType(t, &UsageError{}, err)
}

func TestResolve_HTTPStagesToLocalFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("A|B|1|1\nB|A|1|1\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	staged, err := Resolve(context.Background(), srv.URL, dir)
	require.NoError(t, err)
	defer staged.Cleanup()

	data, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	require.Equal(t, "A|B|1|1\nB|A|1|1\n", string(data))
}

func TestResolve_UnsupportedSchemeIsUsageError(t *testing.T) {
	_, err := Resolve(context.Background(), "ftp://example.com/file.txt", t.TempDir())
	require.IsType(t, &UsageError{}, err)
}
