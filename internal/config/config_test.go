package config

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newTestCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("input", "", "")
	cmd.Flags().Int("buckets", 128, "")
	cmd.Flags().Int("scc-ceiling", 200000, "")
	cmd.Flags().String("log-level", "info", "")
	cmd.Flags().String("log-format", "json", "")
	cmd.Flags().Bool("diagnostics", false, "")
	cmd.Flags().Int("parallel", 1, "")
	cmd.Flags().Bool("compress", false, "")
	cmd.Flags().String("work-dir", "", "")
	return cmd
}

func TestLoad_DefaultsFromFlags(t *testing.T) {
	cmd := newTestCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--input=hops.txt"}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	require.Equal(t, "hops.txt", cfg.Input)
	require.Equal(t, 128, cfg.Buckets)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("CYCLEFIND_LOG_LEVEL", "debug")
	cmd := newTestCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--input=hops.txt"}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel, "env should override the unset flag default")
}
