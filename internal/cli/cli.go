// Package cli wires cyclefind's cobra command tree to the detector
// pipeline, mapping its typed errors to the process exit codes spec.md §7
// requires (0 success, 1 I/O error, 2 usage error).
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/routehop/cyclefind/internal/config"
	"github.com/routehop/cyclefind/internal/detector"
	"github.com/routehop/cyclefind/internal/ingest"
	"github.com/routehop/cyclefind/internal/logging"
	"github.com/routehop/cyclefind/internal/partition"
	"github.com/routehop/cyclefind/internal/telemetry"
)

const (
	exitSuccess = 0
	exitIOError = 1
	exitUsage   = 2
)

// Execute builds and runs the cyclefind command against os.Args, returning
// the process exit code.
func Execute(version string) int {
	return ExecuteArgs(version, os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteArgs runs the cyclefind command against an explicit argument list
// and output streams, so callers (main, tests) don't need to touch os.Args
// or global stdio.
func ExecuteArgs(version string, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand(version)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitCodeFor(err)
	}
	return exitSuccess
}

func newRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cyclefind <input>",
		Short:   "Find the longest simple routing cycle in a claim hop log",
		Version: version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &detector.UsageError{Msg: "cyclefind takes exactly one argument: a local path or http(s)://, s3:// URL"}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "local path or http(s)://, s3:// URL to the hop log (overridden by the positional argument)")
	flags.Int("buckets", partition.DefaultBucketCount, "number of hash-partitioning buckets")
	flags.Int("scc-ceiling", 0, "DFS node-expansion ceiling per SCC (0 selects the default)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", logging.FormatJSON, "log encoding: json or console")
	flags.Bool("diagnostics", false, "log a memory/goroutine sample at the end of the run")
	flags.Int("parallel", 1, "number of buckets to process concurrently")
	flags.Bool("compress", false, "zstd-compress bucket files on disk")
	flags.String("work-dir", "", "directory for bucket/staging files (default: a process-scoped temp dir)")

	return cmd
}

func runDetect(cmd *cobra.Command, inputArg string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cmd)
	if err != nil {
		return &detector.UsageError{Msg: err.Error()}
	}
	cfg.Input = inputArg

	ctx, err = logging.Init(ctx, logging.WithLevel(cfg.LogLevel), logging.WithFormat(cfg.LogFormat))
	if err != nil {
		return &detector.UsageError{Msg: fmt.Sprintf("initializing logging: %v", err)}
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "cyclefind-*")
		if err != nil {
			return &detector.IOError{Op: "creating work directory", Err: err}
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	staged, err := ingest.Resolve(ctx, cfg.Input, workDir)
	if err != nil {
		return err
	}
	defer staged.Cleanup()

	f, err := os.Open(staged.Path)
	if err != nil {
		return &detector.IOError{Op: "opening staged input", Err: err}
	}
	defer f.Close()

	recorder, shutdownTelemetry, err := telemetry.Setup(ctx)
	if err != nil {
		return &detector.IOError{Op: "initializing telemetry", Err: err}
	}
	defer func() { _ = shutdownTelemetry(ctx) }()

	result, err := detector.Run(ctx, f, detector.Options{
		BucketDir:   workDir,
		Buckets:     cfg.Buckets,
		Compress:    cfg.Compress,
		SCCCeiling:  cfg.SCCCeiling,
		Parallel:    cfg.Parallel,
		Diagnostics: cfg.Diagnostics,
	})
	if err != nil {
		return err
	}

	var cyclesFound int64
	for _, n := range result.GroupsByStatus {
		cyclesFound += int64(n)
	}
	recorder.RecordSummary(ctx, int64(result.GroupsOffered), cyclesFound, int64(result.CeilingHits))

	if !result.Found {
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s,%s,%d\n", result.Winner.ClaimID, result.Winner.StatusCode, result.Winner.Length)
	return nil
}

// exitCodeFor maps a returned error to spec.md §7's process exit codes.
func exitCodeFor(err error) int {
	var usageErr *detector.UsageError
	var ingestUsageErr *ingest.UsageError
	if errors.As(err, &usageErr) || errors.As(err, &ingestUsageErr) {
		return exitUsage
	}
	return exitIOError
}
