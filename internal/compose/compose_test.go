package compose

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/panelgen/internal/testutil"
)

var panelNumbers = []int{10, 20, 30, 40, 50, 60, 70, 80, 90}

func nrgbaAt(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(x, y)
}

func TestPosition(t *testing.T) {
	tile := image.Pt(100, 80)
	tests := []struct {
		i    int
		want image.Point
	}{
		{0, image.Pt(20, 20)},
		{1, image.Pt(120, 20)},
		{2, image.Pt(220, 20)},
		{3, image.Pt(20, 100)},
		{4, image.Pt(120, 100)},
		{8, image.Pt(220, 180)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Position(tt.i, tile, DefaultOffset), "tile %d", tt.i)
	}
}

func TestGrid(t *testing.T) {
	const w, h, offset = 10, 8, 5

	tiles := make([]image.Image, 9)
	for i := range tiles {
		tiles[i] = imaging.New(w, h, testutil.TileColor(i))
	}
	background := Frame(w, h, offset, color.White)

	out, err := Grid(background, tiles, offset)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(3*w+2*offset, 3*h+2*offset), out.Bounds().Size())

	for i := range tiles {
		p := Position(i, image.Pt(w, h), offset)
		assert.Equal(t, testutil.TileColor(i), nrgbaAt(out, p.X, p.Y), "top-left of tile %d", i)
		assert.Equal(t, testutil.TileColor(i), nrgbaAt(out, p.X+w-1, p.Y+h-1), "bottom-right of tile %d", i)
	}

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, white, nrgbaAt(out, 0, 0), "border keeps the frame colour")
	assert.Equal(t, white, nrgbaAt(out, out.Bounds().Dx()-1, out.Bounds().Dy()-1))
	assert.Equal(t, white, background.NRGBAAt(offset, offset), "background must not be modified")
}

func TestGrid_WrongTileCount(t *testing.T) {
	tiles := make([]image.Image, 8)
	for i := range tiles {
		tiles[i] = imaging.New(4, 4, color.Black)
	}
	_, err := Grid(Frame(4, 4, 0, color.White), tiles, 0)
	assert.ErrorIs(t, err, ErrTileCount)
}

func TestAnnotate(t *testing.T) {
	fill := color.NRGBA{R: 10, G: 200, B: 10, A: 255}
	tile := imaging.New(60, 50, fill)

	Annotate(tile, "042", DefaultFace())

	black := color.NRGBA{A: 255}
	assert.Equal(t, black, tile.NRGBAAt(12, 16))
	assert.Equal(t, black, tile.NRGBAAt(12, 30))
	assert.Equal(t, black, tile.NRGBAAt(39, 16))
	assert.Equal(t, black, tile.NRGBAAt(39, 30))
	assert.Equal(t, fill, tile.NRGBAAt(11, 16), "left of the box untouched")
	assert.Equal(t, fill, tile.NRGBAAt(40, 31), "below-right of the box untouched")
	assert.Equal(t, fill, tile.NRGBAAt(59, 49))

	found := false
	for y := LabelBox.Min.Y; y < LabelBox.Max.Y && !found; y++ {
		for x := LabelBox.Min.X; x < LabelBox.Max.X; x++ {
			if tile.NRGBAAt(x, y) == LabelColor {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "label text should be drawn inside the box")
}

func TestComposer_Compose(t *testing.T) {
	const w, h = 30, 30
	dir := t.TempDir()
	testutil.WriteTiles(t, dir, panelNumbers, w, h)

	t.Run("synthesized frame", func(t *testing.T) {
		c := New(Options{ImagesDir: dir, Offset: DefaultOffset, FrameColor: color.White})
		out, err := c.Compose(panelNumbers)
		require.NoError(t, err)

		assert.Equal(t, image.Pt(3*w+40, 3*h+40), out.Bounds().Size())
		for i := range panelNumbers {
			p := Position(i, image.Pt(w, h), DefaultOffset)
			assert.Equal(t, testutil.TileColor(i), out.NRGBAAt(p.X+w-1, p.Y+h-1))
		}
	})

	t.Run("background file", func(t *testing.T) {
		bgPath := filepath.Join(t.TempDir(), "panelBorder.png")
		require.NoError(t, imaging.Save(imaging.New(200, 200, color.NRGBA{R: 255, A: 255}), bgPath))

		c := New(Options{ImagesDir: dir, Background: bgPath, Offset: DefaultOffset})
		out, err := c.Compose(panelNumbers)
		require.NoError(t, err)

		assert.Equal(t, image.Pt(200, 200), out.Bounds().Size())
		assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(199, 199))
		assert.Equal(t, testutil.TileColor(0), out.NRGBAAt(DefaultOffset, DefaultOffset))
	})

	t.Run("annotated", func(t *testing.T) {
		c := New(Options{ImagesDir: dir, Offset: DefaultOffset, Annotate: true})
		out, err := c.Compose(panelNumbers)
		require.NoError(t, err)

		p := Position(4, image.Pt(w, h), DefaultOffset)
		assert.Equal(t, LabelBackground, out.NRGBAAt(p.X+LabelBox.Min.X, p.Y+LabelBox.Min.Y))
	})

	t.Run("missing tile", func(t *testing.T) {
		c := New(Options{ImagesDir: t.TempDir()})
		_, err := c.Compose(panelNumbers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tile 10")
	})

	t.Run("missing background", func(t *testing.T) {
		c := New(Options{ImagesDir: dir, Background: filepath.Join(t.TempDir(), "nope.png")})
		_, err := c.Compose(panelNumbers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "background")
	})

	t.Run("wrong count", func(t *testing.T) {
		c := New(Options{ImagesDir: dir})
		_, err := c.Compose(panelNumbers[:5])
		assert.ErrorIs(t, err, ErrTileCount)
	})
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated")
	img := imaging.New(5, 5, color.White)

	path, err := Save(img, dir, "10-20-30")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "10-20-30.png"), path)

	loaded, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(5, 5), loaded.Bounds().Size())
}

func TestLoadFace(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		face, fallback, err := LoadFace("", DefaultFontSize)
		require.NoError(t, err)
		assert.True(t, fallback)
		assert.NotNil(t, face)
	})

	t.Run("missing file falls back", func(t *testing.T) {
		face, fallback, err := LoadFace(filepath.Join(t.TempDir(), "font.ttf"), DefaultFontSize)
		require.NoError(t, err)
		assert.True(t, fallback)
		assert.Equal(t, DefaultFace(), face)
	})

	t.Run("invalid font", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.ttf")
		require.NoError(t, os.WriteFile(path, []byte("not a font"), 0600))
		_, _, err := LoadFace(path, DefaultFontSize)
		assert.Error(t, err)
	})
}
