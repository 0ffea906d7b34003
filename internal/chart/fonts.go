package chart

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontOnce    sync.Once
	fontErr     error
)

func loadFonts() {
	fontOnce.Do(func() {
		var err error
		regularFont, err = opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse goregular: %w", err)
			return
		}
		boldFont, err = opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse gobold: %w", err)
			return
		}
	})
}

// faces holds the font faces for one render. A face caches glyph state
// and must not be shared between goroutines; the parsed fonts can be.
type faces struct {
	title   font.Face
	regular font.Face
}

func newFaces() (*faces, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}
	regular, err := opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size:    14,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create regular face: %w", err)
	}
	title, err := opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size:    20,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		regular.Close()
		return nil, fmt.Errorf("create title face: %w", err)
	}
	return &faces{title: title, regular: regular}, nil
}

func (f *faces) Close() {
	f.title.Close()
	f.regular.Close()
}

// drawText draws text with its baseline starting at (x, y).
func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func textWidth(text string, face font.Face) int {
	return font.MeasureString(face, text).Ceil()
}

// drawTextCentered centres text horizontally on x.
func drawTextCentered(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	drawText(img, text, x-textWidth(text, face)/2, y, col, face)
}

// drawTextRight right-aligns text so it ends at x.
func drawTextRight(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	drawText(img, text, x-textWidth(text, face), y, col, face)
}
