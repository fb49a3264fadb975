package detector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, input string, opts Options) AnalysisResult {
	t.Helper()
	opts.BucketDir = t.TempDir()
	if opts.Buckets == 0 {
		opts.Buckets = 4
	}
	got, err := Run(context.Background(), strings.NewReader(input), opts)
	require.NoError(t, err)
	return got
}

func TestRun_TriangleYieldsLengthThree(t *testing.T) {
	got := run(t, "A|B|claim1|200\nB|C|claim1|200\nC|A|claim1|200\n", Options{})
	require.True(t, got.Found)
	require.Equal(t, 3, got.Winner.Length)
	require.Equal(t, "claim1", got.Winner.ClaimID)
	require.Equal(t, "200", got.Winner.StatusCode)
}

func TestRun_CompetingCyclesPicksLongerOne(t *testing.T) {
	got := run(t, strings.Join([]string{
		"A|B|claim1|200",
		"B|A|claim1|200",
		"B|C|claim1|200",
		"C|D|claim1|200",
		"D|A|claim1|200",
	}, "\n")+"\n", Options{})
	require.Equal(t, 4, got.Winner.Length)
}

func TestRun_KeysAreIsolatedByClaimAndStatus(t *testing.T) {
	got := run(t, strings.Join([]string{
		"A|B|claim1|200",
		"B|C|claim1|200",
		"C|A|claim1|200",
		"X|Y|claim2|200",
		"Y|X|claim2|200",
	}, "\n")+"\n", Options{})
	// claim1/200's 3-cycle beats claim2/200's 2-cycle.
	require.Equal(t, "claim1", got.Winner.ClaimID)
	require.Equal(t, 3, got.Winner.Length)
	require.Equal(t, 2, got.DistinctClaims)
}

func TestRun_SelfLoopYieldsLengthOne(t *testing.T) {
	got := run(t, "A|A|claim1|200\n", Options{})
	require.True(t, got.Found)
	require.Equal(t, 1, got.Winner.Length)
}

func TestRun_DenseFourCliqueYieldsLengthFour(t *testing.T) {
	lines := []string{}
	names := []string{"A", "B", "C", "D"}
	for _, from := range names {
		for _, to := range names {
			if from != to {
				lines = append(lines, from+"|"+to+"|claim1|200")
			}
		}
	}
	got := run(t, strings.Join(lines, "\n")+"\n", Options{})
	require.Equal(t, 4, got.Winner.Length)
}

func TestRun_AcyclicInputFindsNoCycle(t *testing.T) {
	got := run(t, "A|B|claim1|200\nB|C|claim1|200\n", Options{})
	require.False(t, got.Found, "expected no cycle for an acyclic input")
}

func TestRun_MalformedLinesAreSkippedNotFatal(t *testing.T) {
	got := run(t, "A|B|claim1|200\nmalformed-line\nB|A|claim1|200\n", Options{})
	require.True(t, got.Found)
	require.Equal(t, 2, got.Winner.Length)
}

func TestRun_ParallelModeAgreesWithSequentialOnSingleWinner(t *testing.T) {
	input := strings.Join([]string{
		"A|B|claim1|200",
		"B|C|claim1|200",
		"C|A|claim1|200",
		"X|Y|claim2|200",
	}, "\n") + "\n"

	seq := run(t, input, Options{Parallel: 1})
	par := run(t, input, Options{Parallel: 4})

	require.Equal(t, seq.Winner, par.Winner)
}

func TestRun_EmptyInputFindsNoCycle(t *testing.T) {
	got := run(t, "", Options{})
	require.False(t, got.Found)
	require.Equal(t, 0, got.DistinctClaims)
}
