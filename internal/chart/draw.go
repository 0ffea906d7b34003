package chart

import (
	"image"
	"image/color"
	"math"
)

const (
	lineWidth = 2
	dashOn    = 10.0
	dashOff   = 6.0
)

func hline(img *image.RGBA, x0, x1, y int, col color.Color) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, col)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, col color.Color) {
	for y := y0; y <= y1; y++ {
		img.Set(x, y, col)
	}
}

func dot(img *image.RGBA, cx, cy, r int, col color.Color) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				img.Set(cx+x, cy+y, col)
			}
		}
	}
}

// line draws from (x0, y0) to (x1, y1). For dashed lines traveled carries
// the dash phase across consecutive segments; the updated phase is
// returned.
func line(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, dashed bool, traveled float64) float64 {
	dx, dy := float64(x1-x0), float64(y1-y0)
	length := math.Hypot(dx, dy)
	steps := int(math.Ceil(length))
	if steps == 0 {
		dot(img, x0, y0, lineWidth/2, col)
		return traveled
	}
	for i := 0; i <= steps; i++ {
		pos := traveled + float64(i)
		if dashed && math.Mod(pos, dashOn+dashOff) >= dashOn {
			continue
		}
		t := float64(i) / float64(steps)
		x := int(math.Round(float64(x0) + dx*t))
		y := int(math.Round(float64(y0) + dy*t))
		dot(img, x, y, lineWidth/2, col)
	}
	return traveled + length
}
