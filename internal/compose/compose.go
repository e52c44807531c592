// Package compose assembles block tiles into a 3x3 panel.
//
// Tiles are pasted onto a background frame at a fixed offset. The tile size is
// taken from the first tile; tile i lands at column i%3, row i/3. Tiles can be
// annotated with their block number before pasting.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"

	"github.com/leapstack-labs/panelgen/internal/blocks"
)

// Columns is the number of tiles per row.
const Columns = 3

// DefaultOffset is the frame border in pixels.
const DefaultOffset = 20

// ErrTileCount is returned when a grid is built from anything but nine tiles.
var ErrTileCount = errors.New("a panel needs exactly 9 tiles")

// Options configures a Composer.
type Options struct {
	// ImagesDir holds the block tiles as <number>.png.
	ImagesDir string
	// Background is the frame image. Empty synthesizes a plain frame.
	Background string
	Offset     int
	FrameColor color.Color
	Annotate   bool
	Face       font.Face
	Logger     *slog.Logger
}

// Composer builds panels from block numbers.
type Composer struct {
	opts   Options
	logger *slog.Logger
}

// New returns a Composer. A nil Face falls back to the built-in bitmap face.
func New(opts Options) *Composer {
	if opts.FrameColor == nil {
		opts.FrameColor = color.Black
	}
	if opts.Face == nil {
		opts.Face = DefaultFace()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Composer{opts: opts, logger: logger}
}

// TilePath returns where the tile for block n is expected.
func (c *Composer) TilePath(n int) string {
	return filepath.Join(c.opts.ImagesDir, strconv.Itoa(n)+".png")
}

// LoadTile opens the tile for block n as an editable NRGBA image.
func (c *Composer) LoadTile(n int) (*image.NRGBA, error) {
	path := c.TilePath(n)
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tile %d: %w", n, err)
	}
	return imaging.Clone(img), nil
}

// Compose loads the tiles for numbers, annotates them if configured and
// pastes them onto the background.
func (c *Composer) Compose(numbers []int) (*image.NRGBA, error) {
	if len(numbers) != blocks.GridSize {
		return nil, fmt.Errorf("%w: got %d", ErrTileCount, len(numbers))
	}

	tiles := make([]image.Image, 0, len(numbers))
	for _, n := range numbers {
		tile, err := c.LoadTile(n)
		if err != nil {
			return nil, err
		}
		if c.opts.Annotate {
			Annotate(tile, blocks.Label(n), c.opts.Face)
		}
		tiles = append(tiles, tile)
	}

	size := tiles[0].Bounds().Size()
	background, err := c.background(size.X, size.Y)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("composing panel",
		slog.String("key", blocks.Key(numbers)),
		slog.Int("tile_width", size.X),
		slog.Int("tile_height", size.Y),
		slog.Bool("annotated", c.opts.Annotate))

	return Grid(background, tiles, c.opts.Offset)
}

func (c *Composer) background(tileW, tileH int) (image.Image, error) {
	if c.opts.Background == "" {
		return Frame(tileW, tileH, c.opts.Offset, c.opts.FrameColor), nil
	}
	img, err := imaging.Open(c.opts.Background)
	if err != nil {
		return nil, fmt.Errorf("failed to open background %s: %w", c.opts.Background, err)
	}
	return img, nil
}

// Frame returns a plain background sized to hold a 3x3 grid of tileW x tileH
// tiles with an offset border on every side.
func Frame(tileW, tileH, offset int, fill color.Color) *image.NRGBA {
	w := Columns*tileW + 2*offset
	h := Columns*tileH + 2*offset
	return imaging.New(w, h, fill)
}

// Position returns the top-left corner of tile i.
func Position(i int, tile image.Point, offset int) image.Point {
	return image.Pt(i%Columns*tile.X+offset, i/Columns*tile.Y+offset)
}

// Grid pastes nine tiles onto a copy of background. The background itself is
// left untouched.
func Grid(background image.Image, tiles []image.Image, offset int) (*image.NRGBA, error) {
	if len(tiles) != blocks.GridSize {
		return nil, fmt.Errorf("%w: got %d", ErrTileCount, len(tiles))
	}

	size := tiles[0].Bounds().Size()
	out := imaging.Clone(background)
	for i, tile := range tiles {
		out = imaging.Paste(out, tile, Position(i, size, offset))
	}
	return out, nil
}

// Save writes img as <dir>/<key>.png and returns the path.
func Save(img image.Image, dir, key string) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, key+".png")
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save panel: %w", err)
	}
	return path, nil
}
