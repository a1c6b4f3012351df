package img

import (
	"fmt"
	"math"
)

// JoinH concatenates the tiles left to right. All tiles must share the same
// height or the call panics.
func JoinH(tiles []*Grid) *Grid {
	if len(tiles) == 0 {
		panic("img: join of empty tile list")
	}
	height, width := tiles[0].Height, 0
	for _, t := range tiles {
		if t.Height != height {
			panic(fmt.Sprintf("img: joinH height mismatch - have %d want %d", t.Height, height))
		}
		width += t.Width
	}
	res := New(height, width)
	xoff := 0
	for _, t := range tiles {
		for r := 0; r < t.Height; r++ {
			copy(res.Pix[r*width+xoff:], t.Pix[r*t.Width:(r+1)*t.Width])
		}
		xoff += t.Width
	}
	return res
}

// JoinV concatenates the tiles top to bottom. All tiles must share the same
// width or the call panics.
func JoinV(tiles []*Grid) *Grid {
	if len(tiles) == 0 {
		panic("img: join of empty tile list")
	}
	width, height := tiles[0].Width, 0
	for _, t := range tiles {
		if t.Width != width {
			panic(fmt.Sprintf("img: joinV width mismatch - have %d want %d", t.Width, width))
		}
		height += t.Height
	}
	res := New(height, width)
	yoff := 0
	for _, t := range tiles {
		copy(res.Pix[yoff*width:], t.Pix)
		yoff += t.Height
	}
	return res
}

// Log1p applies ln(1+x) to each value in place and returns the grid.
// Zero values stay exactly zero so empty tiles keep the lowest color.
func (g *Grid) Log1p() *Grid {
	for i, v := range g.Pix {
		g.Pix[i] = math.Log1p(v)
	}
	return g
}
