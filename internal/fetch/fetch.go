// Package fetch downloads block images from the remote block store.
//
// Each block is fetched with a single GET request. There is no retry, no
// checksum verification and no concurrency: a failed block is reported and the
// loop moves on to the next one.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultURLTemplate is the block store URL. {number} is replaced by the block number.
const DefaultURLTemplate = "https://data.thepanels.art/blocks/{number}_ps9_nb.png"

// Placeholder is the token replaced by the block number in a URL template.
const Placeholder = "{number}"

// Default download range.
const (
	DefaultFrom = 600
	DefaultTo   = 650
)

// DefaultTimeout bounds a single block request.
const DefaultTimeout = 30 * time.Second

// Status is the outcome of a single block download.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Result describes what happened to one block.
type Result struct {
	Block  string
	Status Status
	Path   string
	Bytes  int64
	Reason string
}

// Report collects the results of a download run in the order they happened.
type Report struct {
	Results []Result
}

// Count returns how many results have the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the block numbers that failed to download.
func (r *Report) Failed() []string {
	var out []string
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res.Block)
		}
	}
	return out
}

// Downloader fetches block images into Dir.
type Downloader struct {
	Client       *http.Client
	URLTemplate  string
	Dir          string
	UserAgent    string
	SkipExisting bool
	Logger       *slog.Logger

	// OnResult, if set, is called after every block.
	OnResult func(Result)
}

// New creates a Downloader writing into dir with default settings.
func New(dir string, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{
		Client:      &http.Client{Timeout: DefaultTimeout},
		URLTemplate: DefaultURLTemplate,
		Dir:         dir,
		Logger:      logger,
	}
}

// URL returns the remote location of a block.
func (d *Downloader) URL(block string) string {
	tmpl := d.URLTemplate
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	return strings.ReplaceAll(tmpl, Placeholder, block)
}

// Path returns the local file a block is written to.
func (d *Downloader) Path(block string) string {
	return filepath.Join(d.Dir, block+".png")
}

// Download fetches a single block. Non-200 responses and transport errors are
// reported as StatusFailed rather than returned as errors.
func (d *Downloader) Download(ctx context.Context, block string) Result {
	logger := d.logger()

	if !isBlockNumber(block) {
		err := fmt.Errorf("%w: %q", ErrInvalidBlock, block)
		logger.Warn(fmt.Sprintf("Block number %s failed to download.", block), slog.String("reason", err.Error()))
		return Result{Block: block, Status: StatusFailed, Reason: err.Error()}
	}
	path := d.Path(block)

	if d.SkipExisting {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			logger.Debug("block already on disk", slog.String("block", block), slog.String("path", path))
			return Result{Block: block, Status: StatusSkipped, Path: path, Bytes: info.Size()}
		}
	}

	url := d.URL(block)
	logger.Debug("fetching block", slog.String("block", block), slog.String("url", url))

	bytes, err := d.fetch(ctx, url, path)
	if err != nil {
		logger.Warn(fmt.Sprintf("Block number %s failed to download.", block), slog.String("reason", err.Error()))
		return Result{Block: block, Status: StatusFailed, Reason: err.Error()}
	}

	return Result{Block: block, Status: StatusDownloaded, Path: path, Bytes: bytes}
}

// DownloadAll fetches blocks one after another. It only stops early when ctx
// is cancelled, in which case the partial report is returned with ctx's error.
func (d *Downloader) DownloadAll(ctx context.Context, blocks []string) (*Report, error) {
	report := &Report{Results: make([]Result, 0, len(blocks))}

	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := d.Download(ctx, block)
		if res.Status == StatusFailed && ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Results = append(report.Results, res)
		if d.OnResult != nil {
			d.OnResult(res)
		}
	}

	return report, nil
}

// ErrInvalidBlock is wrapped by failures for names that are not a block number
// in canonical decimal form. Such names never reach the URL or the filesystem.
var ErrInvalidBlock = errors.New("invalid block number")

func isBlockNumber(block string) bool {
	n, err := strconv.Atoi(block)
	return err == nil && n >= 0 && strconv.Itoa(n) == block
}

// ErrUnexpectedStatus is wrapped by failures caused by a non-200 response.
var ErrUnexpectedStatus = errors.New("unexpected status")

func (d *Downloader) fetch(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read body: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return 0, fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil { //nolint:gosec // block images are public
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return int64(len(body)), nil
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// Range returns the block numbers from..to inclusive as strings.
func Range(from, to int) []string {
	if to < from {
		return nil
	}
	out := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, strconv.Itoa(n))
	}
	return out
}
