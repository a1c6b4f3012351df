package nnet

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jmb792/digitlab/stats"
)

const emaEpochs = 10

// Training statistics for one epoch
type Stats struct {
	Epoch     int
	Loss      float64
	ValLoss   float64
	Acc       float64
	ValAcc    float64
	AvgValAcc float64
	BestSince int
	Elapsed   time.Duration
}

// StatsHeaders lists the measure names in table and CSV column order.
var StatsHeaders = []string{"loss", "val_loss", "acc", "val_acc"}

// Values returns the measures in StatsHeaders order.
func (s Stats) Values() []float64 {
	return []float64{s.Loss, s.ValLoss, s.Acc, s.ValAcc}
}

func (s Stats) Format() []string {
	return []string{
		fmt.Sprintf("%7.4f", s.Loss),
		fmt.Sprintf("%7.4f", s.ValLoss),
		fmt.Sprintf("%6.2f%%", s.Acc*100),
		fmt.Sprintf("%6.2f%%", s.ValAcc*100),
	}
}

func (s Stats) String() string {
	msg := fmt.Sprintf("epoch %3d:", s.Epoch)
	for i, val := range s.Format() {
		msg += fmt.Sprintf("  %s =%s", StatsHeaders[i], val)
	}
	if s.BestSince > 0 {
		msg += fmt.Sprintf(" [%d]", s.BestSince)
	}
	return msg
}

// Tester interface to evaluate the performance after each epoch, Test
// method returns true if training should stop.
type Tester interface {
	Test(net *Network, epoch int, loss float64, start time.Time) bool
}

// Tester which evaluates the loss and accuracy for the validation set and
// updates the stats.
type TestBase struct {
	Train *Dataset
	Valid *Dataset
	Pred  []int
	Stats []Stats
}

// Create a new base tester from the training and validation data. The
// validation set may be nil in which case only training measures are kept.
func NewTestBase(conf Config, data map[string]*Data) *TestBase {
	t := &TestBase{Stats: []Stats{}}
	t.Train = NewDataset(data["train"], conf.TestBatch, conf.MaxSamples)
	if d, ok := data["valid"]; ok {
		t.Valid = NewDataset(d, conf.TestBatch, conf.MaxSamples)
	}
	return t
}

// Generate the predicted validation classes when test is next run.
func (t *TestBase) Predict() *TestBase {
	if t.Valid != nil {
		t.Pred = make([]int, t.Valid.Samples)
	}
	return t
}

// Reset stats prior to new run
func (t *TestBase) Reset() {
	t.Stats = t.Stats[:0]
}

// Test performance of the network, called on completion of each epoch.
func (t *TestBase) Test(net *Network, epoch int, loss float64, start time.Time) bool {
	s := Stats{Epoch: epoch, Loss: loss}
	s.Acc = 1 - net.Error(t.Train, nil)
	if t.Valid != nil {
		s.ValLoss = net.Loss(t.Valid)
		s.ValAcc = 1 - net.Error(t.Valid, t.Pred)
		// early stopping tracks a moving average of validation accuracy
		avg := 0.0
		if epoch > 1 && len(t.Stats) >= epoch-1 {
			avg = t.Stats[epoch-2].AvgValAcc
		}
		s.AvgValAcc = stats.EMA(avg).Add(s.ValAcc, emaEpochs)
		for ep := epoch - 1; ep >= 1; ep-- {
			if t.Stats[ep-1].AvgValAcc < s.AvgValAcc {
				s.BestSince = epoch - ep - 1
				break
			}
		}
	}
	s.Elapsed = time.Since(start)
	t.Stats = append(t.Stats, s)
	return epoch >= net.MaxEpoch || loss <= net.MinLoss ||
		(net.StopAfter > 0 && s.BestSince >= net.StopAfter)
}

type testLogger struct {
	*TestBase
}

// Create a new tester which logs stats to stdout.
func NewTestLogger(conf Config, data map[string]*Data) Tester {
	return testLogger{TestBase: NewTestBase(conf, data).Predict()}
}

func (t testLogger) Test(net *Network, epoch int, loss float64, start time.Time) bool {
	done := t.TestBase.Test(net, epoch, loss, start)
	s := t.Stats[len(t.Stats)-1]
	if done || net.LogEvery == 0 || epoch%net.LogEvery == 0 {
		fmt.Println(s)
	}
	if done {
		fmt.Printf("run time: %s\n", s.Elapsed.Round(10*time.Millisecond))
	}
	return done
}

// Tester which appends each epoch to the model metrics CSV file as well as
// logging to stdout.
type CSVLogger struct {
	Tester
	Base  *TestBase
	model string
}

func NewCSVLogger(model string, conf Config, data map[string]*Data) *CSVLogger {
	logger := NewTestLogger(conf, data).(testLogger)
	return &CSVLogger{Tester: logger, Base: logger.TestBase, model: model}
}

func (t *CSVLogger) Test(net *Network, epoch int, loss float64, start time.Time) bool {
	done := t.Tester.Test(net, epoch, loss, start)
	s := t.Base.Stats[len(t.Base.Stats)-1]
	if err := AppendMetrics(t.model, s); err != nil {
		fmt.Println("error writing metrics:", err)
	}
	return done
}

// Train the network on the given training set by updating the weights
func Train(net *Network, dset *Dataset, test Tester, rng *rand.Rand) {
	done := false
	start := time.Now()
	for epoch := 1; epoch <= net.MaxEpoch && !done; epoch++ {
		loss := TrainEpoch(net, dset, rng)
		done = test.Test(net, epoch, loss, start)
	}
}

// Perform one training epoch on dataset, returns the average loss prior to
// updating the weights.
func TrainEpoch(net *Network, dset *Dataset, rng *rand.Rand) float64 {
	if net.Shuffle {
		dset.Shuffle(rng)
	}
	weightDecay := net.Eta * net.Lambda / float64(dset.Samples)
	nfeat := dset.nfeat()
	classes := net.Classes()
	loss := 0.0
	for batch := 0; batch < dset.Batches(); batch++ {
		x, labels := dset.Batch(batch)
		data := x.Data().([]float64)
		for i, label := range labels {
			yPred := net.Fprop(data[i*nfeat:(i+1)*nfeat], true)
			yOneHot := OneHot(label, classes)
			loss += net.OutLayer().Loss(yOneHot, yPred)
			// combined gradient at the output
			grad := make([]float64, classes)
			for k := range grad {
				grad[k] = yPred[k] - yOneHot[k]
			}
			// back propagate gradient
			for l := len(net.Layers) - 1; l >= 0; l-- {
				grad = net.Layers[l].Bprop(grad)
			}
		}
		// update weights
		for _, layer := range net.Layers {
			if l, ok := layer.(ParamLayer); ok {
				l.Update(net.Eta, weightDecay, len(labels))
			}
		}
	}
	return loss / float64(dset.Samples)
}
