package testutil

import (
	"image/color"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/disintegration/imaging"
)

// WriteTile writes a solid w x h PNG named <n>.png into dir and returns its path.
func WriteTile(t testing.TB, dir string, n, w, h int, c color.Color) string {
	t.Helper()
	path := filepath.Join(dir, strconv.Itoa(n)+".png")
	if err := imaging.Save(imaging.New(w, h, c), path); err != nil {
		t.Fatalf("failed to write tile %d: %v", n, err)
	}
	return path
}

// WriteTiles writes one tile per number, each filled with a distinct grey level.
func WriteTiles(t testing.TB, dir string, numbers []int, w, h int) {
	t.Helper()
	for i, n := range numbers {
		WriteTile(t, dir, n, w, h, TileColor(i))
	}
}

// TileColor is the fill colour WriteTiles uses for the i-th tile.
func TileColor(i int) color.NRGBA {
	v := uint8(20 + i*20)
	return color.NRGBA{R: v, G: v, B: 255 - v, A: 255}
}
