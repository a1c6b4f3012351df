package vis

import (
	"fmt"
	"math/rand"

	"github.com/jmb792/digitlab/img"
)

// SampleGrid draws perClass images per class uniformly without replacement
// and tiles them into one grid: one row per class in ascending class order.
// For images of size w the result has shape (numClasses*w, perClass*w).
// The rng is injected so tests can fix the selection.
func SampleGrid(byClass map[int][]*img.Grid, numClasses, perClass int, rng *rand.Rand) (*img.Grid, error) {
	rows := make([]*img.Grid, numClasses)
	for class := 0; class < numClasses; class++ {
		images := byClass[class]
		if len(images) < perClass {
			return nil, fmt.Errorf("vis: insufficient samples for class %d - have %d want %d", class, len(images), perClass)
		}
		tiles := make([]*img.Grid, perClass)
		for i, ix := range rng.Perm(len(images))[:perClass] {
			tiles[i] = images[ix]
		}
		rows[class] = img.JoinH(tiles)
	}
	return img.JoinV(rows), nil
}

// GroupByClass splits the records into per label image lists, preserving
// record order within each class.
func GroupByClass(recs []Record) map[int][]*img.Grid {
	byClass := map[int][]*img.Grid{}
	for _, r := range recs {
		byClass[r.Label] = append(byClass[r.Label], r.Image)
	}
	return byClass
}
