package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/panelgen/internal/blocks"
	"github.com/leapstack-labs/panelgen/internal/cli/output"
)

// blocksOutput is the JSON shape of the blocks command.
type blocksOutput struct {
	Source  string         `json:"source"`
	Count   int            `json:"count"`
	Blocks  []int          `json:"blocks"`
	Invalid []invalidBlock `json:"invalid"`
}

type invalidBlock struct {
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// NewBlocksCommand creates the blocks command.
func NewBlocksCommand() *cobra.Command {
	var onlyNFH bool

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List the block numbers panels are built from",
		Long: `List the block numbers available to generate.

Without flags the whole catalog is listed. With --only-nfh the blocks file is
read and every entry is checked; entries that generate would reject are
reported separately.`,
		Example: `  # List the catalog
  panelgen blocks

  # Check the owned blocks list
  panelgen blocks --only-nfh --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBlocks(cmd, onlyNFH)
		},
	}

	cmd.Flags().BoolVar(&onlyNFH, "only-nfh", false, "List the blocks from the blocks file")

	return cmd
}

func runBlocks(cmd *cobra.Command, onlyNFH bool) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	catalog := cmdCtx.Cfg.CatalogValue()

	raw, source, err := cmdCtx.blockSource(onlyNFH)
	if err != nil {
		return err
	}

	out := blocksOutput{Source: source, Blocks: []int{}, Invalid: []invalidBlock{}}
	for _, entry := range raw {
		n, err := catalog.Check(entry)
		if err != nil {
			var verr *blocks.ValidationError
			if !errors.As(err, &verr) {
				return err
			}
			out.Invalid = append(out.Invalid, invalidBlock{Value: entry, Reason: verr.Message()})
			continue
		}
		out.Blocks = append(out.Blocks, n)
	}
	out.Count = len(out.Blocks)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Blocks (%d)", out.Count)))
		r.Println("")
		r.Println(output.FormatKeyValue("Source", out.Source))
		r.Println(output.FormatKeyValue("Numbers", joinLabels(out.Blocks)))
	default:
		r.Header(1, fmt.Sprintf("Blocks (%d)", out.Count))
		r.KeyValue("Source", out.Source)
		r.Println(joinLabels(out.Blocks))
	}

	if len(out.Invalid) > 0 {
		r.Println("")
		r.Warning(fmt.Sprintf("%d entries are not usable:", len(out.Invalid)))
		for _, inv := range out.Invalid {
			r.StatusLine(inv.Value, "invalid", inv.Reason)
		}
	}

	if out.Count < blocks.GridSize {
		r.Warning(fmt.Sprintf("At least %d blocks are needed to generate a panel.", blocks.GridSize))
	}
	return nil
}

func joinLabels(numbers []int) string {
	labels := make([]string, len(numbers))
	for i, n := range numbers {
		labels[i] = blocks.Label(n)
	}
	return strings.Join(labels, " ")
}
