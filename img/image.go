// Package img contains routines for manipulating grayscale image grids.
package img

import "fmt"

// Grid is a 2d grayscale image stored row major with intensities
// typically in the range 0 to 1.
type Grid struct {
	Pix    []float64
	Height int
	Width  int
}

// New creates a zero filled grid of the given size.
func New(height, width int) *Grid {
	return &Grid{Pix: make([]float64, height*width), Height: height, Width: width}
}

func (g *Grid) At(r, c int) float64 {
	return g.Pix[r*g.Width+c]
}

func (g *Grid) Set(r, c int, v float64) {
	g.Pix[r*g.Width+c] = v
}

// Reshape converts a flat vector of width*width values into a square grid.
// The stored vector is laid out column major relative to the display
// orientation, so element (r, c) of the result is taken from storage row
// width-1-c, column r. Panics if the vector length does not match.
func Reshape(v []float64, width int) *Grid {
	if len(v) != width*width {
		panic(fmt.Sprintf("img: reshape length mismatch - have %d want %d", len(v), width*width))
	}
	g := New(width, width)
	for r := 0; r < width; r++ {
		for c := 0; c < width; c++ {
			g.Set(r, c, v[(width-1-c)+r*width])
		}
	}
	return g
}

// Flatten is the inverse of Reshape, recovering the flat vector in storage
// order from a square grid.
func (g *Grid) Flatten() []float64 {
	if g.Height != g.Width {
		panic(fmt.Sprintf("img: flatten needs a square grid - have %dx%d", g.Height, g.Width))
	}
	w := g.Width
	v := make([]float64, w*w)
	for r := 0; r < w; r++ {
		for c := 0; c < w; c++ {
			v[(w-1-c)+r*w] = g.At(r, c)
		}
	}
	return v
}

// Scale returns a new grid with each value multiplied by k.
func (g *Grid) Scale(k float64) *Grid {
	res := New(g.Height, g.Width)
	for i, v := range g.Pix {
		res.Pix[i] = v * k
	}
	return res
}

// Max returns the largest value in the grid.
func (g *Grid) Max() float64 {
	max := 0.0
	for _, v := range g.Pix {
		if v > max {
			max = v
		}
	}
	return max
}
