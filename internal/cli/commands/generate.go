package commands

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/panelgen/internal/blocks"
	"github.com/leapstack-labs/panelgen/internal/cli/output"
	"github.com/leapstack-labs/panelgen/internal/compose"
	"github.com/leapstack-labs/panelgen/internal/state"
	"github.com/leapstack-labs/panelgen/internal/viewer"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	OnlyNFH     bool
	NoNumbers   bool
	Save        bool
	DontShow    bool
	FromNumbers string
	Samples     int
	Seed        uint64
}

// panelOutput is the JSON shape of one generated panel.
type panelOutput struct {
	Numbers []int  `json:"numbers"`
	Key     string `json:"key"`
	Source  string `json:"source"`
	Path    string `json:"path,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	return newGenerateCommand(nil)
}

func newGenerateCommand(open viewer.Opener) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random panel from the available blocks",
		Long: `Generate a 3x3 panel from nine blocks picked at random.

Blocks are picked from the whole catalog, from the owned blocks listed in the
blocks file (--only-nfh), or from an explicit comma separated list
(--from-numbers). Every block number is checked before anything is drawn.

The panel is shown with the system image viewer unless --dont-show is given,
and written to the output directory as <a-b-...>.png when --save is given.`,
		Example: `  # Show one random panel
  panelgen generate

  # Save five panels of owned blocks without opening them
  panelgen generate --only-nfh --samples 5 --save --dont-show

  # Build a panel from given blocks, without the number labels
  panelgen generate --from-numbers 10,20,30,40,50,60,70,80,90 --no-numbers`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts, open)
		},
	}

	cmd.Flags().BoolVar(&opts.OnlyNFH, "only-nfh", false, "Only use blocks listed in the blocks file")
	cmd.Flags().BoolVar(&opts.NoNumbers, "no-numbers", false, "Don't add the block numbers to the images")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the resulting image")
	cmd.Flags().BoolVar(&opts.DontShow, "dont-show", false, "Don't show the image at the end")
	cmd.Flags().StringVar(&opts.FromNumbers, "from-numbers", "", "Use the given block numbers, comma separated")
	cmd.Flags().IntVar(&opts.Samples, "samples", 1, "Number of panels to generate")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "Seed for the block sampler (0 picks a random seed)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions, open viewer.Opener) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger
	ctx := cmd.Context()

	if opts.Samples <= 0 {
		r.Error("Please, don't do this.")
		return &ExitError{Code: ExitNonsense}
	}

	raw, source, err := cmdCtx.numbersFor(opts)
	if err != nil {
		return err
	}

	numbers, err := cfg.CatalogValue().Validate(raw)
	if err != nil {
		var verr *blocks.ValidationError
		if errors.As(err, &verr) {
			r.Error(verr.Message())
			return &ExitError{Code: ExitFailure}
		}
		return err
	}

	frame, err := cfg.Grid.Color()
	if err != nil {
		return err
	}

	face := compose.DefaultFace()
	if !opts.NoNumbers {
		loaded, fallback, err := compose.LoadFace(cfg.FontPath, cfg.FontSize)
		if err != nil {
			return err
		}
		if fallback {
			logger.Debug("font not found, using built-in face", slog.String("path", cfg.FontPath))
		}
		face = loaded
	}

	composer := compose.New(compose.Options{
		ImagesDir:  cfg.ImagesDir,
		Background: cfg.Background,
		Offset:     cfg.Grid.Offset,
		FrameColor: frame,
		Annotate:   !opts.NoNumbers,
		Face:       face,
		Logger:     logger,
	})
	view := viewer.New(open)

	store, closeStore, err := cmdCtx.OpenHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rng := newRand(opts.Seed)
	results := make([]panelOutput, 0, opts.Samples)

	for i := 0; i < opts.Samples; i++ {
		picked, err := blocks.Sample(rng, numbers, blocks.GridSize)
		if err != nil {
			return err
		}
		key := blocks.Key(picked)
		logger.Debug("composing panel", slog.Int("sample", i+1), slog.String("blocks", key))

		img, err := composer.Compose(picked)
		if err != nil {
			return fmt.Errorf("failed to compose panel %s: %w", key, err)
		}

		path := ""
		if opts.Save {
			path, err = compose.Save(img, cfg.OutputDir, key)
			if err != nil {
				return err
			}
		}

		if !opts.DontShow {
			showPanel(ctx, cmdCtx, view, img, path)
		}

		if store != nil {
			rec := &state.Panel{
				Numbers:    picked,
				Source:     source,
				Annotated:  !opts.NoNumbers,
				OutputPath: path,
			}
			if err := store.RecordPanel(ctx, rec); err != nil {
				logger.Warn("failed to record panel", slog.String("blocks", key), slog.String("error", err.Error()))
			}
		}

		out := panelOutput{Numbers: picked, Key: key, Source: source, Path: path}
		results = append(results, out)
		if r.EffectiveMode() != output.ModeJSON {
			printPanel(r, out)
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}
	return nil
}

// numbersFor returns the raw candidate list and the history source label.
func (c *CommandContext) numbersFor(opts *GenerateOptions) ([]string, string, error) {
	if opts.FromNumbers != "" {
		return blocks.ParseNumbers(opts.FromNumbers), state.SourceNumbers, nil
	}
	return c.blockSource(opts.OnlyNFH)
}

// showPanel opens the saved file when there is one and a temporary copy
// otherwise. Viewer failures are reported but do not stop the run.
func showPanel(ctx context.Context, c *CommandContext, view *viewer.Viewer, img image.Image, path string) {
	var err error
	if path != "" {
		err = view.Open(ctx, path)
	} else {
		_, err = view.Show(ctx, img)
	}
	if err != nil {
		c.Renderer.Warning(fmt.Sprintf("Could not show panel: %v", err))
	}
}

func printPanel(r *output.Renderer, p panelOutput) {
	if r.EffectiveMode() == output.ModeMarkdown {
		line := "- " + p.Key
		if p.Path != "" {
			line += " (" + p.Path + ")"
		}
		r.Println(line)
		return
	}
	if p.Path != "" {
		r.Success(fmt.Sprintf("Panel %s saved to %s", p.Key, p.Path))
		return
	}
	r.Success("Panel " + p.Key)
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}
