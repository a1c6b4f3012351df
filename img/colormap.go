package img

import (
	"image"
	"image/color"
)

// Palette is an ordered list of rgb stops which values are interpolated over.
type Palette [][3]float64

// color map definitions
var (
	Heat = Palette{{0, 0, .5}, {0, 0, 1}, {0, .5, 1}, {0, 1, 1}, {.5, 1, .5}, {1, 1, 0}, {1, .5, 0}, {1, 0, 0}, {.5, 0, 0}}
	Gray = Palette{{0, 0, 0}, {1, 1, 1}}
)

// Render maps the grid to an image using the palette, scaling values from 0
// to the grid maximum. A grid of all zeros renders in the first stop color.
func Render(g *Grid, pal Palette) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	max := g.Max()
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			im.Set(c, r, pal.mapColor(g.At(r, c), 0, max))
		}
	}
	return im
}

// convert value in range cmin:cmax to interpolated color from the palette
func (pal Palette) mapColor(val, cmin, cmax float64) color.NRGBA {
	var col [3]float64
	ncol := len(pal)
	switch {
	case val <= cmin || cmax <= cmin:
		col = pal[0]
	case val >= cmax:
		col = pal[ncol-1]
	default:
		vsc := float64(ncol-1) * (val - cmin) / (cmax - cmin)
		ix := int(vsc)
		fx := vsc - float64(ix)
		for i := range col {
			col[i] = pal[ix][i]*(1-fx) + pal[ix+1][i]*fx
		}
	}
	return color.NRGBA{uint8(col[0] * 255), uint8(col[1] * 255), uint8(col[2] * 255), 255}
}
