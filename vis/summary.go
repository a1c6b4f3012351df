// Package vis turns raw classifier predictions into the grids and summaries
// used for visualisation: sample grids, per prediction entropy and the
// image tile confusion matrix.
package vis

import (
	"fmt"
	"math"

	"github.com/jmb792/digitlab/img"
	"github.com/jmb792/digitlab/stats"
	"gorgonia.org/tensor"
)

// Classifier is any model which maps a batch of flattened images to one
// probability distribution per row.
type Classifier interface {
	Predict(x *tensor.Dense) (*tensor.Dense, error)
}

// Record holds the summary for one test example.
type Record struct {
	Predicted int
	Label     int
	Entropy   float64
	Image     *img.Grid
	Correct   bool
}

// Entropy returns -sum p*ln(p) over the strictly positive components.
// Zero or negative components contribute nothing, so a one hot vector has
// entropy exactly 0 and an all zero vector also yields 0.
func Entropy(p []float64) float64 {
	e := 0.0
	for _, v := range p {
		if v > 0 {
			e -= v * math.Log(v)
		}
	}
	return e
}

// Argmax returns the index of the largest component, ties broken by the
// lowest index.
func Argmax(p []float64) int {
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return best
}

// Summarize runs the classifier over the test inputs and builds one record
// per example in input order. inputs has shape (examples, width*width) and
// labels gives the true class per row. The classifier output must be one
// distribution of numClasses values per row.
func Summarize(c Classifier, inputs *tensor.Dense, labels []int, width, numClasses int) ([]Record, error) {
	shape := inputs.Shape()
	if len(shape) != 2 || shape[1] != width*width {
		return nil, fmt.Errorf("vis: bad input shape %v - want (n, %d)", shape, width*width)
	}
	n := shape[0]
	if len(labels) != n {
		return nil, fmt.Errorf("vis: have %d labels for %d examples", len(labels), n)
	}
	probs, err := c.Predict(inputs)
	if err != nil {
		return nil, err
	}
	pshape := probs.Shape()
	if len(pshape) != 2 || pshape[0] != n || pshape[1] != numClasses {
		return nil, fmt.Errorf("vis: bad prediction shape %v - want (%d, %d)", pshape, n, numClasses)
	}
	xdata := inputs.Data().([]float64)
	pdata := probs.Data().([]float64)
	nfeat := width * width
	recs := make([]Record, n)
	for i := 0; i < n; i++ {
		p := pdata[i*numClasses : (i+1)*numClasses]
		rec := Record{
			Predicted: Argmax(p),
			Label:     labels[i],
			Entropy:   Entropy(p),
			Image:     img.Reshape(xdata[i*nfeat:(i+1)*nfeat], width),
		}
		rec.Correct = rec.Predicted == rec.Label
		recs[i] = rec
	}
	return recs, nil
}

// Accuracy returns the fraction of records flagged correct.
func Accuracy(recs []Record) float64 {
	if len(recs) == 0 {
		return 0
	}
	n := 0
	for _, r := range recs {
		if r.Correct {
			n++
		}
	}
	return float64(n) / float64(len(recs))
}

// MeanEntropy returns the mean prediction entropy keyed by predicted class.
// Classes which were never predicted have no entry.
func MeanEntropy(recs []Record) map[int]float64 {
	avg := map[int]*stats.Average{}
	for _, r := range recs {
		a, ok := avg[r.Predicted]
		if !ok {
			a = new(stats.Average)
			avg[r.Predicted] = a
		}
		a.Add(r.Entropy)
	}
	res := make(map[int]float64, len(avg))
	for class, a := range avg {
		res[class] = a.Mean
	}
	return res
}
