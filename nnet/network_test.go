package nnet

import (
	"math"
	"testing"

	"gorgonia.org/tensor"
)

func testConfig() Config {
	return Config{
		DataSet:      "test",
		Eta:          0.5,
		TrainBatch:   5,
		TestBatch:    10,
		MaxEpoch:     10,
		FlattenInput: true,
		RandSeed:     42,
		Shuffle:      true,
	}.AddLayers(
		Linear{Nout: 8},
		Activation{Atype: "relu"},
		Linear{Nout: 4},
		Softmax{},
	)
}

func TestNetworkPredict(t *testing.T) {
	rng := NewRng(42)
	net := New(testConfig(), []int{4, 4}, rng)
	if net.Classes() != 4 {
		t.Fatalf("classes = %d", net.Classes())
	}
	x := tensor.New(tensor.WithShape(3, 16), tensor.WithBacking(make([]float64, 48)))
	probs, err := net.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	if s := probs.Shape(); s[0] != 3 || s[1] != 4 {
		t.Fatalf("prediction shape: %v", s)
	}
	data := probs.Data().([]float64)
	for row := 0; row < 3; row++ {
		sum := 0.0
		for _, v := range data[row*4 : (row+1)*4] {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d sums to %g", row, sum)
		}
	}
}

func TestNetworkPredictBadShape(t *testing.T) {
	rng := NewRng(42)
	net := New(testConfig(), []int{4, 4}, rng)
	x := tensor.New(tensor.WithShape(3, 7), tensor.WithBacking(make([]float64, 21)))
	if _, err := net.Predict(x); err == nil {
		t.Error("expected shape error")
	}
}

// training on a linearly separable toy set should reduce the loss
func TestTrainEpoch(t *testing.T) {
	rng := NewRng(42)
	conf := testConfig()
	samples := 40
	inputs := make([]float64, samples*16)
	labels := make([]int, samples)
	for i := 0; i < samples; i++ {
		labels[i] = i % 4
		inputs[i*16+labels[i]*4] = 1
	}
	data := NewData(4, []int{4, 4}, labels, inputs)
	dset := NewDataset(data, conf.TrainBatch, 0)
	net := New(conf, dset.Shape(), rng)

	before := net.Loss(dset)
	for epoch := 0; epoch < 5; epoch++ {
		TrainEpoch(net, dset, rng)
	}
	after := net.Loss(dset)
	if after >= before {
		t.Errorf("loss did not decrease: before=%g after=%g", before, after)
	}
	if errRate := net.Error(dset, nil); errRate > 0.5 {
		t.Errorf("error rate %g after training", errRate)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	saved := DataDir
	DataDir = t.TempDir()
	defer func() { DataDir = saved }()

	rng := NewRng(42)
	conf := testConfig()
	net := New(conf, []int{4, 4}, rng)
	cp := &Checkpoint{Model: "test", Conf: conf, Epoch: 3}
	cp.Export(net)
	if err := SaveCheckpoint(cp); err != nil {
		t.Fatal(err)
	}
	if !HaveCheckpoint("test") {
		t.Fatal("checkpoint not written")
	}
	back, err := LoadCheckpoint("test")
	if err != nil {
		t.Fatal(err)
	}
	if back.Epoch != 3 || len(back.Params) != 2 {
		t.Fatalf("checkpoint: epoch=%d params=%d", back.Epoch, len(back.Params))
	}
	net2 := New(conf, []int{4, 4}, NewRng(7))
	if err := back.Import(net2); err != nil {
		t.Fatal(err)
	}
	w1, _ := net.Layers[0].(ParamLayer).Params()
	w2, _ := net2.Layers[0].(ParamLayer).Params()
	for i := range w1 {
		if w1[i] != w2[i] {
			t.Fatalf("weights differ at %d", i)
		}
	}
}
