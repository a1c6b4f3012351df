package img

import (
	"math/rand"
	"testing"
)

func TestReshapeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, width := range []int{1, 2, 5, 28} {
		v := make([]float64, width*width)
		for i := range v {
			v[i] = rng.Float64()
		}
		back := Reshape(v, width).Flatten()
		for i := range v {
			if back[i] != v[i] {
				t.Fatalf("width %d: round trip mismatch at %d: have %g want %g", width, i, back[i], v[i])
			}
		}
	}
}

func TestReshapeOrientation(t *testing.T) {
	// storage index for display pixel (r, c) is (w-1-c) + r*w
	w := 3
	v := make([]float64, w*w)
	v[(w-1-0)+0*w] = 1 // top left
	v[(w-1-2)+2*w] = 2 // bottom right
	g := Reshape(v, w)
	if g.At(0, 0) != 1 || g.At(2, 2) != 2 {
		t.Errorf("unexpected orientation:\n%v", g.Pix)
	}
}

func TestReshapeBadLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for length mismatch")
		}
	}()
	Reshape(make([]float64, 10), 3)
}

func TestJoin(t *testing.T) {
	tiles := make([]*Grid, 4)
	for i := range tiles {
		tiles[i] = New(5, 5)
		tiles[i].Set(2, 3, float64(i+1))
	}
	row := JoinH(tiles)
	if row.Height != 5 || row.Width != 20 {
		t.Fatalf("joinH shape: %dx%d", row.Height, row.Width)
	}
	for i := range tiles {
		if row.At(2, i*5+3) != float64(i+1) {
			t.Errorf("tile %d not copied: %v", i, row.Pix)
		}
	}
	col := JoinV([]*Grid{row, row, row})
	if col.Height != 15 || col.Width != 20 {
		t.Fatalf("joinV shape: %dx%d", col.Height, col.Width)
	}
	if col.At(7, 8) != 2 {
		t.Errorf("second band not copied")
	}
}

func TestJoinMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched tile size")
		}
	}()
	JoinH([]*Grid{New(4, 4), New(5, 5)})
}

func TestLog1p(t *testing.T) {
	g := New(2, 2)
	g.Set(0, 1, 9)
	g.Log1p()
	if g.At(0, 0) != 0 {
		t.Errorf("log1p(0) = %g, want 0", g.At(0, 0))
	}
	if v := g.At(0, 1); v < 2.3 || v > 2.31 {
		t.Errorf("log1p(9) = %g, want ln(10)", v)
	}
}

func TestRender(t *testing.T) {
	g := New(3, 3)
	im := Render(g, Heat)
	if im.Bounds().Dx() != 3 || im.Bounds().Dy() != 3 {
		t.Fatalf("render bounds: %v", im.Bounds())
	}
	// all zero grid renders in the first palette stop, not transparent
	_, _, b, a := im.At(1, 1).RGBA()
	if a == 0 || b == 0 {
		t.Errorf("zero cell should map to lowest color: %v", im.At(1, 1))
	}
}
