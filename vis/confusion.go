package vis

import "github.com/jmb792/digitlab/img"

// Confusion builds the image tile confusion matrix. Each cell holds the
// lowest entropy example for its (predicted, true) pair scaled by the pair
// count, or an all zero tile when the pair never occurs. Rows run by
// descending predicted class and columns by descending true class, and
// ln(1+x) is applied to the assembled grid to compress the count scaling.
// The result has shape (numClasses*width, numClasses*width).
func Confusion(recs []Record, numClasses, width int) *img.Grid {
	count := make([]int, numClasses*numClasses)
	best := make([]*Record, numClasses*numClasses)
	for i := range recs {
		r := &recs[i]
		cell := r.Predicted*numClasses + r.Label
		count[cell]++
		if best[cell] == nil || r.Entropy < best[cell].Entropy {
			best[cell] = r
		}
	}
	rows := make([]*img.Grid, 0, numClasses)
	for pred := numClasses - 1; pred >= 0; pred-- {
		tiles := make([]*img.Grid, 0, numClasses)
		for label := numClasses - 1; label >= 0; label-- {
			cell := pred*numClasses + label
			if best[cell] == nil {
				tiles = append(tiles, img.New(width, width))
			} else {
				tiles = append(tiles, best[cell].Image.Scale(float64(count[cell])))
			}
		}
		rows = append(rows, img.JoinH(tiles))
	}
	return img.JoinV(rows).Log1p()
}

// Counts returns the number of records per (predicted, true) pair as a
// numClasses*numClasses slice indexed by predicted*numClasses+true.
func Counts(recs []Record, numClasses int) []int {
	count := make([]int, numClasses*numClasses)
	for _, r := range recs {
		count[r.Predicted*numClasses+r.Label]++
	}
	return count
}
