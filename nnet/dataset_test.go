package nnet

import (
	"math/rand"
	"testing"
)

func testData(samples int) *Data {
	width := 4
	inputs := make([]float64, samples*width*width)
	labels := make([]int, samples)
	for i := range labels {
		labels[i] = i % 10
		for j := 0; j < width*width; j++ {
			inputs[i*width*width+j] = float64(i%10) / 10
		}
	}
	return NewData(10, []int{width, width}, labels, inputs)
}

func TestOneHot(t *testing.T) {
	v := OneHot(3, 10)
	for i, x := range v {
		if (i == 3) != (x == 1) {
			t.Fatalf("onehot: %v", v)
		}
	}
}

func TestDatasetBatches(t *testing.T) {
	d := NewDataset(testData(25), 10, 0)
	if d.Batches() != 3 || d.BatchSize != 10 {
		t.Fatalf("batches=%d size=%d", d.Batches(), d.BatchSize)
	}
	x, labels := d.Batch(0)
	if s := x.Shape(); s[0] != 10 || s[1] != 16 {
		t.Errorf("batch shape: %v", s)
	}
	if len(labels) != 10 || labels[3] != 3 {
		t.Errorf("labels: %v", labels)
	}
	// final batch is short
	x, labels = d.Batch(2)
	if s := x.Shape(); s[0] != 5 || len(labels) != 5 {
		t.Errorf("last batch shape: %v labels %v", s, labels)
	}
}

func TestDatasetShuffle(t *testing.T) {
	d := NewDataset(testData(100), 100, 0)
	d.Shuffle(rand.New(rand.NewSource(1)))
	_, labels := d.Batch(0)
	// each input row encodes its own label so pairing must be kept
	x, _ := d.Batch(0)
	data := x.Data().([]float64)
	for i, label := range labels {
		if data[i*16] != float64(label)/10 {
			t.Fatalf("row %d: input %g does not match label %d", i, data[i*16], label)
		}
	}
}

func TestDatasetMaxSamples(t *testing.T) {
	d := NewDataset(testData(100), 0, 30)
	if d.Samples != 30 || d.BatchSize != 30 || d.Batches() != 1 {
		t.Errorf("samples=%d batch=%d", d.Samples, d.BatchSize)
	}
	if s := d.Tensor().Shape(); s[0] != 30 || s[1] != 16 {
		t.Errorf("tensor shape: %v", s)
	}
}

func TestDataImage(t *testing.T) {
	d := testData(10)
	im := d.Image(5)
	if im.Height != 4 || im.Width != 4 {
		t.Fatalf("image shape %dx%d", im.Height, im.Width)
	}
	if im.At(1, 2) != 0.5 {
		t.Errorf("pixel value %g", im.At(1, 2))
	}
	byClass := d.ByClass()
	if len(byClass) != 10 || len(byClass[3]) != 1 {
		t.Errorf("byClass sizes: %d", len(byClass))
	}
}

func TestDataFileRoundTrip(t *testing.T) {
	saved := DataDir
	DataDir = t.TempDir()
	defer func() { DataDir = saved }()

	d := testData(20)
	if err := SaveDataFile(d, "test_train"); err != nil {
		t.Fatal(err)
	}
	if !FileExists("test_train.dat") {
		t.Fatal("file not written")
	}
	back, err := LoadDataFile("test_train")
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != 20 || back.Labels[7] != 7 || back.Inputs[16] != 0.1 {
		t.Errorf("loaded data differs: len=%d", back.Len())
	}
}
