package nnet

import (
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"path"

	"github.com/jmb792/digitlab/img"
	"gorgonia.org/tensor"
)

var (
	DataDir   = defaultDataDir()
	DataTypes = []string{"train", "valid", "test"}
)

func defaultDataDir() string {
	if dir := os.Getenv("DIGITLAB_DATA"); dir != "" {
		return dir
	}
	return "data"
}

// Data type represents the raw data for a training or test set. Inputs are
// flat vectors in storage order with values scaled to the 0..1 range.
type Data struct {
	Class  []string
	Dims   []int
	Labels []int
	Inputs []float64
}

// NewData function creates a new data set with numbered class names.
func NewData(nclasses int, dims []int, labels []int, inputs []float64) *Data {
	classes := make([]string, nclasses)
	for i := range classes {
		classes[i] = fmt.Sprint(i)
	}
	return &Data{Class: classes, Dims: dims, Labels: labels, Inputs: inputs}
}

func (d *Data) Len() int { return len(d.Labels) }

func (d *Data) Classes() []string { return d.Class }

// Shape returns height, width
func (d *Data) Shape() []int { return d.Dims }

func (d *Data) nfeat() int { return prod(d.Dims) }

// Image returns the given example reshaped for display.
func (d *Data) Image(i int) *img.Grid {
	nfeat := d.nfeat()
	return img.Reshape(d.Inputs[i*nfeat:(i+1)*nfeat], d.Dims[1])
}

// ByClass groups the reshaped images by label.
func (d *Data) ByClass() map[int][]*img.Grid {
	byClass := map[int][]*img.Grid{}
	for i, label := range d.Labels {
		byClass[label] = append(byClass[label], d.Image(i))
	}
	return byClass
}

// Dataset type wraps a Data set with batch access in shuffled order.
type Dataset struct {
	*Data
	Samples   int
	BatchSize int
	indexes   []int
	xBuffer   []float64
	labels    []int
}

// Create a new Dataset and set the batch size and maxSamples
func NewDataset(data *Data, batchSize, maxSamples int) *Dataset {
	d := &Dataset{Data: data, Samples: data.Len()}
	if maxSamples > 0 && d.Samples > maxSamples {
		d.Samples = maxSamples
	}
	if batchSize == 0 || batchSize > d.Samples {
		d.BatchSize = d.Samples
	} else {
		d.BatchSize = batchSize
	}
	d.indexes = make([]int, d.Samples)
	for i := range d.indexes {
		d.indexes[i] = i
	}
	d.xBuffer = make([]float64, d.nfeat()*d.BatchSize)
	d.labels = make([]int, d.BatchSize)
	return d
}

func (d *Dataset) Batches() int {
	n := d.Samples / d.BatchSize
	if d.Samples%d.BatchSize != 0 {
		n++
	}
	return n
}

// Shuffle the data set
func (d *Dataset) Shuffle(rng *rand.Rand) {
	d.indexes = rng.Perm(d.Samples)
}

// Batch returns input rows and labels for the given batch. The final batch
// may be short. The returned tensor is only valid until the next call.
func (d *Dataset) Batch(batch int) (x *tensor.Dense, labels []int) {
	start := batch * d.BatchSize
	end := start + d.BatchSize
	if end > d.Samples {
		end = d.Samples
	}
	nfeat := d.nfeat()
	for i, ix := range d.indexes[start:end] {
		copy(d.xBuffer[i*nfeat:], d.Inputs[ix*nfeat:(ix+1)*nfeat])
		d.labels[i] = d.Labels[ix]
	}
	count := end - start
	x = tensor.New(tensor.WithShape(count, nfeat), tensor.WithBacking(d.xBuffer[:count*nfeat]))
	return x, d.labels[:count]
}

// Tensor returns all samples as one (samples, features) tensor in stored
// order, for inference over the whole set.
func (d *Dataset) Tensor() *tensor.Dense {
	nfeat := d.nfeat()
	buf := make([]float64, d.Samples*nfeat)
	copy(buf, d.Inputs[:d.Samples*nfeat])
	return tensor.New(tensor.WithShape(d.Samples, nfeat), tensor.WithBacking(buf))
}

// OneHot encodes a class label as a vector with 1 at the label index.
func OneHot(label, classes int) []float64 {
	v := make([]float64, classes)
	v[label] = 1
	return v
}

// Load data from disk given the data set name.
func LoadData(dataSet string) (d map[string]*Data, err error) {
	d = make(map[string]*Data)
	for _, key := range DataTypes {
		name := dataSet + "_" + key
		if FileExists(name + ".dat") {
			var data *Data
			if data, err = LoadDataFile(name); err != nil {
				return
			}
			d[key] = data
		}
	}
	if _, ok := d["train"]; !ok {
		return nil, fmt.Errorf("no training data found for %s under %s", dataSet, DataDir)
	}
	return d, nil
}

// Decode data from file in gob format under DataDir
func LoadDataFile(name string) (*Data, error) {
	filePath := path.Join(DataDir, name+".dat")
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fmt.Printf("loading data from %s.dat:\t", name)
	d := new(Data)
	if err = gob.NewDecoder(f).Decode(d); err != nil {
		return nil, err
	}
	fmt.Println(append(d.Shape(), d.Len()))
	return d, nil
}

// Encode in gob format and save to file under DataDir
func SaveDataFile(d *Data, name string) error {
	filePath := path.Join(DataDir, name+".dat")
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Println("saving data to", name+".dat")
	return gob.NewEncoder(f).Encode(d)
}

// Check if file exists under DataDir
func FileExists(name string) bool {
	_, err := os.Stat(path.Join(DataDir, name))
	return err == nil
}
