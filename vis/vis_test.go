package vis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jmb792/digitlab/img"
	"gorgonia.org/tensor"
)

const testWidth = 4

type stubClassifier struct {
	probs []float64
	cols  int
}

func (s stubClassifier) Predict(x *tensor.Dense) (*tensor.Dense, error) {
	rows := len(s.probs) / s.cols
	return tensor.New(tensor.WithShape(rows, s.cols), tensor.WithBacking(s.probs)), nil
}

func testImage(seed int64) *img.Grid {
	rng := rand.New(rand.NewSource(seed))
	g := img.New(testWidth, testWidth)
	for i := range g.Pix {
		g.Pix[i] = rng.Float64()
	}
	return g
}

func TestEntropy(t *testing.T) {
	if e := Entropy([]float64{1, 0, 0, 0}); e != 0 {
		t.Errorf("one hot entropy = %g, want 0", e)
	}
	if e := Entropy([]float64{0, 0, 0}); e != 0 {
		t.Errorf("zero mass entropy = %g, want 0", e)
	}
	// negative components are skipped by the > 0 guard
	if e := Entropy([]float64{-0.5, 1}); e != 0 {
		t.Errorf("negative component entropy = %g, want 0", e)
	}
	p := []float64{0.25, 0.25, 0.25, 0.25}
	if e := Entropy(p); math.Abs(e-math.Log(4)) > 1e-12 {
		t.Errorf("uniform entropy = %g, want ln(4)", e)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		q := make([]float64, 10)
		sum := 0.0
		for j := range q {
			q[j] = rng.Float64()
			sum += q[j]
		}
		for j := range q {
			q[j] /= sum
		}
		if e := Entropy(q); e < 0 {
			t.Fatalf("entropy %g < 0 for %v", e, q)
		}
	}
}

func TestArgmax(t *testing.T) {
	if ix := Argmax([]float64{0.1, 0.5, 0.4}); ix != 1 {
		t.Errorf("argmax = %d, want 1", ix)
	}
	// ties break to the lowest index
	if ix := Argmax([]float64{0.5, 0.5}); ix != 0 {
		t.Errorf("tied argmax = %d, want 0", ix)
	}
}

func TestSummarize(t *testing.T) {
	nfeat := testWidth * testWidth
	xdata := make([]float64, 2*nfeat)
	for i := range xdata {
		xdata[i] = float64(i) / float64(len(xdata))
	}
	x := tensor.New(tensor.WithShape(2, nfeat), tensor.WithBacking(xdata))
	c := stubClassifier{cols: 3, probs: []float64{
		1, 0, 0,
		0.2, 0.3, 0.5,
	}}
	recs, err := Summarize(c, x, []int{0, 1}, testWidth, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("have %d records, want 2", len(recs))
	}
	if !recs[0].Correct || recs[0].Predicted != 0 || recs[0].Entropy != 0 {
		t.Errorf("record 0: %+v", recs[0])
	}
	if recs[1].Correct || recs[1].Predicted != 2 || recs[1].Label != 1 {
		t.Errorf("record 1: %+v", recs[1])
	}
	// image is the reshaped input row
	want := img.Reshape(xdata[nfeat:], testWidth)
	for i, v := range recs[1].Image.Pix {
		if v != want.Pix[i] {
			t.Fatalf("record image differs at %d", i)
		}
	}
	if acc := Accuracy(recs); acc != 0.5 {
		t.Errorf("accuracy = %g, want 0.5", acc)
	}
}

func TestSummarizeBadShape(t *testing.T) {
	x := tensor.New(tensor.WithShape(1, 10), tensor.WithBacking(make([]float64, 10)))
	if _, err := Summarize(stubClassifier{cols: 3, probs: make([]float64, 3)}, x, []int{0}, testWidth, 3); err == nil {
		t.Error("expected error for input width mismatch")
	}
}

func TestMeanEntropyOmitsUnpredicted(t *testing.T) {
	recs := []Record{
		{Predicted: 0, Entropy: 0.5},
		{Predicted: 0, Entropy: 1.5},
		{Predicted: 2, Entropy: 2.0},
	}
	m := MeanEntropy(recs)
	if len(m) != 2 {
		t.Fatalf("have %d entries, want 2: %v", len(m), m)
	}
	if _, ok := m[1]; ok {
		t.Error("class 1 was never predicted but is reported")
	}
	if m[0] != 1.0 || m[2] != 2.0 {
		t.Errorf("means: %v", m)
	}
}

func TestSampleGrid(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	byClass := map[int][]*img.Grid{}
	for class := 0; class < 3; class++ {
		for i := 0; i < 5; i++ {
			byClass[class] = append(byClass[class], testImage(int64(class*10+i)))
		}
	}
	grid, err := SampleGrid(byClass, 3, 4, rng)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Height != 3*testWidth || grid.Width != 4*testWidth {
		t.Errorf("grid shape %dx%d, want %dx%d", grid.Height, grid.Width, 3*testWidth, 4*testWidth)
	}
}

func TestSampleGridInsufficient(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	byClass := map[int][]*img.Grid{0: {testImage(1)}}
	if _, err := SampleGrid(byClass, 1, 10, rng); err == nil {
		t.Error("expected insufficient samples error")
	}
}

func TestConfusion(t *testing.T) {
	numClasses := 4
	recs := []Record{
		{Predicted: 1, Label: 1, Entropy: 0.2, Image: testImage(1)},
		{Predicted: 1, Label: 1, Entropy: 0.1, Image: testImage(2)},
		{Predicted: 1, Label: 0, Entropy: 0.9, Image: testImage(3)},
		{Predicted: 3, Label: 2, Entropy: 0.4, Image: testImage(4)},
	}
	grid := Confusion(recs, numClasses, testWidth)
	if grid.Height != numClasses*testWidth || grid.Width != numClasses*testWidth {
		t.Fatalf("grid shape %dx%d", grid.Height, grid.Width)
	}
	counts := Counts(recs, numClasses)
	total := 0
	for _, n := range counts {
		total += n
	}
	if len(counts) != numClasses*numClasses || total != len(recs) {
		t.Errorf("counts: %v", counts)
	}
	// cell (pred=1, true=1) holds the entropy 0.1 image scaled by count 2,
	// then log1p. Rows run by descending pred, columns by descending true.
	rowOff := (numClasses - 1 - 1) * testWidth
	colOff := (numClasses - 1 - 1) * testWidth
	want := math.Log1p(testImage(2).At(0, 0) * 2)
	if v := grid.At(rowOff, colOff); math.Abs(v-want) > 1e-12 {
		t.Errorf("cell (1,1) top left = %g, want %g", v, want)
	}
}

func TestConfusionEmptyCell(t *testing.T) {
	recs := []Record{
		{Predicted: 0, Label: 0, Entropy: 0.1, Image: testImage(1)},
	}
	numClasses := 8
	grid := Confusion(recs, numClasses, testWidth)
	// pair (pred=3, true=7) never occurs: its tile must stay exactly zero
	rowOff := (numClasses - 1 - 3) * testWidth
	colOff := (numClasses - 1 - 7) * testWidth
	for r := 0; r < testWidth; r++ {
		for c := 0; c < testWidth; c++ {
			if v := grid.At(rowOff+r, colOff+c); v != 0 {
				t.Fatalf("empty cell has value %g at %d,%d", v, r, c)
			}
		}
	}
}
