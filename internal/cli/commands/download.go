package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/panelgen/internal/blocks"
	"github.com/leapstack-labs/panelgen/internal/cli/output"
	"github.com/leapstack-labs/panelgen/internal/fetch"
	"github.com/leapstack-labs/panelgen/internal/state"
)

// DownloadOptions holds options for the download command.
type DownloadOptions struct {
	OnlyNFH      bool
	From         int
	To           int
	Dir          string
	SkipExisting bool
}

// downloadOutput is the JSON shape of a download run.
type downloadOutput struct {
	Dir        string        `json:"dir"`
	Downloaded int           `json:"downloaded"`
	Skipped    int           `json:"skipped"`
	Failed     []string      `json:"failed"`
	Results    []blockResult `json:"results"`
}

type blockResult struct {
	Block  string `json:"block"`
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// NewDownloadCommand creates the download command.
func NewDownloadCommand() *cobra.Command {
	opts := &DownloadOptions{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download block images",
		Long: `Download block images into the images directory.

Blocks are fetched one at a time. A block that fails is reported and skipped;
failed blocks are not retried.

By default the range from download.from to download.to is fetched. With
--only-nfh the blocks listed in the blocks file are fetched instead.`,
		Example: `  # Download the default range
  panelgen download

  # Download a custom range
  panelgen download --from 10 --to 40

  # Download only owned blocks, keeping images already on disk
  panelgen download --only-nfh --skip-existing`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.OnlyNFH, "only-nfh", false, "Download only the blocks listed in the blocks file")
	cmd.Flags().IntVar(&opts.From, "from", 0, "First block number of the range (default from config)")
	cmd.Flags().IntVar(&opts.To, "to", 0, "Last block number of the range, inclusive (default from config)")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Target directory (default: images_dir)")
	cmd.Flags().BoolVar(&opts.SkipExisting, "skip-existing", false, "Do not fetch blocks whose image is already on disk")

	return cmd
}

func runDownload(cmd *cobra.Command, opts *DownloadOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	var targets []string
	if opts.OnlyNFH {
		list, _, err := cmdCtx.blockSource(true)
		if err != nil {
			return err
		}
		targets, err = cmdCtx.usableBlocks(list)
		if err != nil {
			return err
		}
	} else {
		from, to := cfg.Download.From, cfg.Download.To
		if cmd.Flags().Changed("from") {
			from = opts.From
		}
		if cmd.Flags().Changed("to") {
			to = opts.To
		}
		if from > to {
			return fmt.Errorf("invalid range: --from %d is greater than --to %d", from, to)
		}
		targets = fetch.Range(from, to)
	}

	dir := cfg.ImagesDir
	if opts.Dir != "" {
		dir = opts.Dir
	}

	store, closeStore, err := cmdCtx.OpenHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	d := fetch.New(dir, cmdCtx.Logger)
	d.Client = &http.Client{Timeout: cfg.Download.Timeout}
	d.URLTemplate = cfg.Download.URLTemplate
	d.UserAgent = cfg.Download.UserAgent
	d.SkipExisting = opts.SkipExisting

	jsonMode := r.EffectiveMode() == output.ModeJSON
	d.OnResult = func(res fetch.Result) {
		if store != nil {
			rec := &state.Download{
				Block:  res.Block,
				Status: string(res.Status),
				Reason: res.Reason,
				Bytes:  res.Bytes,
			}
			if err := store.RecordDownload(ctx, rec); err != nil {
				cmdCtx.Logger.Warn("failed to record download", slog.String("block", res.Block), slog.String("error", err.Error()))
			}
		}
		if !jsonMode {
			r.StatusLine(res.Block, string(res.Status), res.Reason)
		}
	}

	cmdCtx.Logger.Debug("starting download",
		slog.String("dir", dir),
		slog.Int("blocks", len(targets)),
		slog.Bool("skip_existing", opts.SkipExisting))

	if !jsonMode {
		r.Println("Downloading block images.")
	}

	report, err := d.DownloadAll(ctx, targets)
	if err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}

	if jsonMode {
		return r.JSON(newDownloadOutput(dir, report))
	}

	r.Println("Download finished.")
	summary := fmt.Sprintf("%d downloaded, %d skipped, %d failed",
		report.Count(fetch.StatusDownloaded), report.Count(fetch.StatusSkipped), report.Count(fetch.StatusFailed))
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println("")
		r.Println(output.FormatKeyValue("Summary", summary))
		return nil
	}
	r.Muted(summary)
	return nil
}

// usableBlocks checks list entries against the catalog and returns them in
// canonical decimal form. Entries that fail the check are reported and left out.
func (c *CommandContext) usableBlocks(raw []string) ([]string, error) {
	catalog := c.Cfg.CatalogValue()
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		n, err := catalog.Check(entry)
		if err != nil {
			var verr *blocks.ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			c.Renderer.Warning(verr.Message())
			c.Logger.Debug("skipping block list entry", slog.String("entry", entry))
			continue
		}
		out = append(out, strconv.Itoa(n))
	}
	return out, nil
}

func newDownloadOutput(dir string, report *fetch.Report) downloadOutput {
	out := downloadOutput{
		Dir:        dir,
		Downloaded: report.Count(fetch.StatusDownloaded),
		Skipped:    report.Count(fetch.StatusSkipped),
		Failed:     report.Failed(),
		Results:    make([]blockResult, 0, len(report.Results)),
	}
	if out.Failed == nil {
		out.Failed = []string{}
	}
	for _, res := range report.Results {
		out.Results = append(out.Results, blockResult{
			Block:  res.Block,
			Status: string(res.Status),
			Path:   res.Path,
			Bytes:  res.Bytes,
			Reason: res.Reason,
		})
	}
	return out
}
