package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/panelgen/internal/blocks"
	"github.com/leapstack-labs/panelgen/internal/cli/output"
	"github.com/leapstack-labs/panelgen/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Downloads bool
	Limit     int
}

type panelRecord struct {
	ID        string `json:"id"`
	Numbers   []int  `json:"numbers"`
	Source    string `json:"source"`
	Annotated bool   `json:"annotated"`
	Path      string `json:"path,omitempty"`
	CreatedAt string `json:"created_at"`
}

type downloadRecord struct {
	ID        string `json:"id"`
	Block     string `json:"block"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Bytes     int64  `json:"bytes"`
	CreatedAt string `json:"created_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show generated panels and download attempts",
		Long: `Show the most recent entries of the history database.

Panels are listed by default; --downloads lists block download attempts
instead. Newest entries come first.`,
		Example: `  # Last 20 panels
  panelgen history

  # Last 100 download attempts as JSON
  panelgen history --downloads --limit 100 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Downloads, "downloads", false, "List download attempts instead of panels")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of entries (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	store, closeStore, err := cmdCtx.OpenHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if store == nil {
		r.Muted("History recording is disabled (record_history: false or no state_path).")
		return nil
	}

	if opts.Downloads {
		downloads, err := store.ListDownloads(ctx, opts.Limit)
		if err != nil {
			return err
		}
		return printDownloads(r, downloads)
	}

	panels, err := store.ListPanels(ctx, opts.Limit)
	if err != nil {
		return err
	}
	return printPanels(r, panels)
}

func printPanels(r *output.Renderer, panels []state.Panel) error {
	if r.EffectiveMode() == output.ModeJSON {
		records := make([]panelRecord, 0, len(panels))
		for _, p := range panels {
			records = append(records, panelRecord{
				ID:        p.ID,
				Numbers:   p.Numbers,
				Source:    p.Source,
				Annotated: p.Annotated,
				Path:      p.OutputPath,
				CreatedAt: p.CreatedAt.Format(time.RFC3339),
			})
		}
		return r.JSON(records)
	}

	if len(panels) == 0 {
		r.Muted("No panels recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(panels))
	for _, p := range panels {
		rows = append(rows, []string{
			p.CreatedAt.Local().Format(time.DateTime),
			blocks.Key(p.Numbers),
			p.Source,
			strconv.FormatBool(p.Annotated),
			p.OutputPath,
		})
	}
	r.Header(1, fmt.Sprintf("Panels (%d)", len(panels)))
	r.Table([]string{"Created", "Blocks", "Source", "Numbers", "Saved To"}, rows)
	return nil
}

func printDownloads(r *output.Renderer, downloads []state.Download) error {
	if r.EffectiveMode() == output.ModeJSON {
		records := make([]downloadRecord, 0, len(downloads))
		for _, d := range downloads {
			records = append(records, downloadRecord{
				ID:        d.ID,
				Block:     d.Block,
				Status:    d.Status,
				Reason:    d.Reason,
				Bytes:     d.Bytes,
				CreatedAt: d.CreatedAt.Format(time.RFC3339),
			})
		}
		return r.JSON(records)
	}

	if len(downloads) == 0 {
		r.Muted("No downloads recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(downloads))
	for _, d := range downloads {
		rows = append(rows, []string{
			d.CreatedAt.Local().Format(time.DateTime),
			d.Block,
			d.Status,
			strconv.FormatInt(d.Bytes, 10),
			d.Reason,
		})
	}
	r.Header(1, fmt.Sprintf("Downloads (%d)", len(downloads)))
	r.Table([]string{"Created", "Block", "Status", "Bytes", "Reason"}, rows)
	return nil
}
