package nnet

import (
	"strings"
	"testing"
	"time"
)

func testerConfig() Config {
	return Config{
		DataSet:      "test",
		Eta:          0.1,
		TrainBatch:   10,
		TestBatch:    10,
		MaxEpoch:     5,
		MinLoss:      0.01,
		FlattenInput: true,
		RandSeed:     42,
	}.AddLayers(
		Linear{Nout: 10},
		Softmax{},
	)
}

func testerData() map[string]*Data {
	return map[string]*Data{"train": testData(30), "valid": testData(20)}
}

func TestStatsString(t *testing.T) {
	s := Stats{Epoch: 3, Loss: 0.25, ValLoss: 0.5, Acc: 0.9, ValAcc: 0.85}
	msg := s.String()
	for _, want := range []string{"epoch   3", "loss", "90.00%", "85.00%"} {
		if !strings.Contains(msg, want) {
			t.Errorf("%q missing from %q", want, msg)
		}
	}
}

func TestTestBase(t *testing.T) {
	conf := testerConfig()
	data := testerData()
	base := NewTestBase(conf, data).Predict()
	if base.Valid == nil || len(base.Pred) != 20 {
		t.Fatalf("valid set not configured: pred=%d", len(base.Pred))
	}
	net := New(conf, data["train"].Shape(), NewRng(conf.RandSeed))

	start := time.Now()
	if done := base.Test(net, 1, 1.0, start); done {
		t.Error("done after first epoch")
	}
	s := base.Stats[0]
	if s.Epoch != 1 || s.Loss != 1.0 {
		t.Errorf("stats: %+v", s)
	}
	if s.ValAcc < 0 || s.ValAcc > 1 || s.Acc < 0 || s.Acc > 1 {
		t.Errorf("accuracy out of range: %+v", s)
	}
	for _, p := range base.Pred {
		if p < 0 || p >= 10 {
			t.Fatalf("prediction out of range: %v", base.Pred)
		}
	}
	// stops when the loss reaches MinLoss or at MaxEpoch
	if done := base.Test(net, 2, 0.005, start); !done {
		t.Error("should stop at MinLoss")
	}
	for epoch := 3; epoch <= conf.MaxEpoch; epoch++ {
		if done := base.Test(net, epoch, 1.0, start); done != (epoch == conf.MaxEpoch) {
			t.Errorf("epoch %d: done=%v", epoch, done)
		}
	}
	base.Reset()
	if len(base.Stats) != 0 {
		t.Error("stats not cleared")
	}
}

func TestCSVLogger(t *testing.T) {
	saved := DataDir
	DataDir = t.TempDir()
	defer func() { DataDir = saved }()

	conf := testerConfig()
	data := testerData()
	logger := NewCSVLogger("test", conf, data)
	net := New(conf, data["train"].Shape(), NewRng(conf.RandSeed))
	start := time.Now()
	logger.Test(net, 1, 0.9, start)
	logger.Test(net, 2, 0.8, start)
	series, err := ReadMetrics("test")
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 4 || len(series["loss"]) != 2 {
		t.Fatalf("series: %v", series)
	}
	if series["loss"][1].Epoch != 2 || series["loss"][1].Value != 0.8 {
		t.Errorf("loss series: %v", series["loss"])
	}
	if len(logger.Base.Stats) != 2 {
		t.Errorf("stats: %d", len(logger.Base.Stats))
	}
}
