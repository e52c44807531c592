package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultFontSize is the label size in pixels.
const DefaultFontSize = 12

// Label placement inside a tile.
var (
	// LabelBox is the filled rectangle behind the number, (12,16)-(39,30) inclusive.
	LabelBox = image.Rect(12, 16, 40, 31)
	// LabelOrigin is the top-left corner of the label text.
	LabelOrigin = image.Pt(15, 15)

	LabelBackground = color.NRGBA{A: 255}
	LabelColor      = color.NRGBA{R: 237, G: 230, B: 211, A: 255}
)

// Annotate draws label on img over a black box in the top-left corner.
func Annotate(img draw.Image, label string, face font.Face) {
	if face == nil {
		face = DefaultFace()
	}
	box := LabelBox.Add(img.Bounds().Min)
	draw.Draw(img, box, image.NewUniform(LabelBackground), image.Point{}, draw.Src)

	origin := LabelOrigin.Add(img.Bounds().Min)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(LabelColor),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(origin.X),
			Y: fixed.I(origin.Y) + face.Metrics().Ascent,
		},
	}
	d.DrawString(label)
}

// DefaultFace is the built-in bitmap face used when no font file is available.
func DefaultFace() font.Face {
	return basicfont.Face7x13
}

// LoadFace opens a TrueType/OpenType font at size pixels. A missing file is
// not an error: the built-in face is returned and fallback is true.
func LoadFace(path string, size float64) (face font.Face, fallback bool, err error) {
	if path == "" {
		return DefaultFace(), true, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultFace(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read font %s: %w", path, err)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	face, err = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, false, nil
}
