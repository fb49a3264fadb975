// Package ingest resolves cyclefind's input argument — a local path, an
// http(s):// URL, or an s3:// URI — into a local file the rest of the
// pipeline can stream from, following the fetch-then-stage pattern the pack
// uses for pulling remote inputs onto local disk before processing.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("cyclefind/ingest")

// UsageError signals the input argument itself is malformed — an exit-code-2
// condition, not an I/O failure.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Staged is a locally readable copy of the requested input, plus whether it
// should be removed when the run finishes.
type Staged struct {
	Path    string
	Cleanup func()
}

// Resolve turns input (a local path, http(s):// URL, or s3:// URI) into a
// local file ready for internal/partition to stream: a local path is
// checked with os.Stat and returned as given, a remote input is staged to a
// file under workDir.
// Run-scoped temp files are named with a ksuid so concurrent runs sharing a
// workDir never collide.
func Resolve(ctx context.Context, input, workDir string) (Staged, error) {
	ctx, span := tracer.Start(ctx, "ingest.Resolve")
	defer span.End()

	if input == "" {
		return Staged{}, &UsageError{Msg: "input path or URL is required"}
	}

	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" {
		if _, statErr := os.Stat(input); statErr != nil {
			return Staged{}, &UsageError{Msg: fmt.Sprintf("input %q is not a readable local path: %v", input, statErr)}
		}
		return Staged{Path: input, Cleanup: func() {}}, nil
	}

	switch u.Scheme {
	case "http", "https":
		return fetchHTTP(ctx, u, workDir)
	case "s3":
		return fetchS3(ctx, u, workDir)
	default:
		return Staged{}, &UsageError{Msg: fmt.Sprintf("unsupported input scheme %q", u.Scheme)}
	}
}

func stagingPath(workDir string) string {
	return filepath.Join(workDir, "cyclefind-input-"+ksuid.New().String()+".txt")
}

// fetchChunkSize is the read buffer size; fetchHTTP rate-limits at 50 reads
// of this size per second so a large remote input can't saturate the
// machine's network interface during staging.
const fetchChunkSize = 1 << 20 // 1 MiB

func fetchHTTP(ctx context.Context, u *url.URL, workDir string) (Staged, error) {
	l := ctxzap.Extract(ctx)
	dst := stagingPath(workDir)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Staged{}, fmt.Errorf("building request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Staged{}, fmt.Errorf("fetching %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Staged{}, fmt.Errorf("fetching %s: unexpected status %s", u.Redacted(), resp.Status)
	}

	f, err := os.Create(dst)
	if err != nil {
		return Staged{}, fmt.Errorf("creating staging file: %w", err)
	}

	rl := ratelimit.New(50)
	buf := make([]byte, fetchChunkSize)
	var total int64
	for {
		rl.Take()
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				f.Close()
				os.Remove(dst)
				return Staged{}, fmt.Errorf("writing staging file: %w", writeErr)
			}
			total += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(dst)
			return Staged{}, fmt.Errorf("reading %s: %w", u.Redacted(), readErr)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return Staged{}, fmt.Errorf("closing staging file: %w", err)
	}

	l.Info("staged http(s) input", zap.String("url", u.Redacted()), zap.Int64("bytes", total))
	return Staged{Path: dst, Cleanup: func() { os.Remove(dst) }}, nil
}

func fetchS3(ctx context.Context, u *url.URL, workDir string) (Staged, error) {
	l := ctxzap.Extract(ctx)
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return Staged{}, &UsageError{Msg: fmt.Sprintf("s3 URI %q must be s3://bucket/key", u.String())}
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return Staged{}, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	dst := stagingPath(workDir)
	f, err := os.Create(dst)
	if err != nil {
		return Staged{}, fmt.Errorf("creating staging file: %w", err)
	}
	defer f.Close()

	downloader := manager.NewDownloader(client)
	n, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(dst)
		return Staged{}, fmt.Errorf("downloading s3://%s/%s: %w", bucket, key, err)
	}

	l.Info("staged s3 input", zap.String("bucket", bucket), zap.String("key", key), zap.Int64("bytes", n))
	return Staged{Path: dst, Cleanup: func() { os.Remove(dst) }}, nil
}
