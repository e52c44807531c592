package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/panelgen/internal/blocks"
	"github.com/leapstack-labs/panelgen/internal/cli/config"
	"github.com/leapstack-labs/panelgen/internal/cli/output"
	"github.com/leapstack-labs/panelgen/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects config, logger and renderer for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	mode := output.Mode(cfg.OutputFormat)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// OpenHistory opens the history store when recording is enabled. A nil store
// with a no-op cleanup is returned when it is disabled.
func (c *CommandContext) OpenHistory(ctx context.Context) (*state.Store, func(), error) {
	if !c.Cfg.RecordHistory || c.Cfg.StatePath == "" {
		return nil, func() {}, nil
	}
	store, err := state.Open(ctx, c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// blockSource returns the raw block list for a command: the owned-block list
// when onlyNFH is set, the whole catalog otherwise.
func (c *CommandContext) blockSource(onlyNFH bool) ([]string, string, error) {
	if onlyNFH {
		list, err := blocks.LoadList(c.Cfg.BlocksFile)
		if err != nil {
			return nil, "", err
		}
		return list.NFH, state.SourceNFH, nil
	}
	return c.Cfg.CatalogValue().Numbers(), state.SourceCatalog, nil
}
