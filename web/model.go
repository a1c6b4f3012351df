// Package web has a web based interface for model training and visualisation.
package web

import (
	"fmt"
	"html/template"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmb792/digitlab/nnet"
	"github.com/jmb792/digitlab/vis"
)

// Model wraps a network under training together with its data sets and the
// prediction records used by the image and confusion pages.
type Model struct {
	Name      string
	Conf      nnet.Config
	Net       *nnet.Network
	Data      map[string]*nnet.Data
	Records   []vis.Record
	Epoch     int
	trainData *nnet.Dataset
	test      *nnet.TestBase
	conn      *websocket.Conn
	rng       *rand.Rand
	running   bool
	stop      bool
	sync.Mutex
}

// Create a new model: load the config, data sets and any saved checkpoint
// given the model name.
func NewModel(model string) (*Model, error) {
	m := &Model{Name: model}
	log.Println("load model:", model)
	if nnet.HaveCheckpoint(model) {
		cp, err := nnet.LoadCheckpoint(model)
		if err != nil {
			return nil, err
		}
		if err := m.Init(cp.Conf); err != nil {
			return nil, err
		}
		if err := cp.Import(m.Net); err != nil {
			return nil, err
		}
		m.Epoch = cp.Epoch
		m.test.Stats = cp.Stats
	} else {
		conf, err := nnet.LoadConfig(model + ".conf")
		if err != nil {
			return nil, err
		}
		if err := m.Init(conf); err != nil {
			return nil, err
		}
	}
	return m, m.refresh()
}

// Initialise the network and data sets from the config.
func (m *Model) Init(conf nnet.Config) error {
	log.Printf("init network: dataSet=%s\n", conf.DataSet)
	var err error
	if m.Data, err = nnet.LoadData(conf.DataSet); err != nil {
		return err
	}
	m.rng = nnet.NewRng(conf.RandSeed)
	m.trainData = nnet.NewDataset(m.Data["train"], conf.TrainBatch, conf.MaxSamples)
	m.Net = nnet.New(conf, m.trainData.Shape(), m.rng)
	m.test = nnet.NewTestBase(conf, m.Data).Predict()
	m.Conf = conf
	if conf.DebugLevel >= 1 {
		fmt.Println(m.Net)
	}
	return nil
}

// Initialise for a new training run, clearing any previous stats and metrics.
func (m *Model) Start(conf nnet.Config) error {
	if err := m.Init(conf); err != nil {
		return err
	}
	m.test.Reset()
	m.Epoch = 0
	m.Records = nil
	return nnet.RemoveMetrics(m.Name)
}

// Perform a training run in the background. If restart is set then training
// begins from scratch with new weights, else it continues from the current
// epoch.
func (m *Model) Train(restart bool) error {
	log.Printf("train %s: restart=%v epoch=%d\n", m.Name, restart, m.Epoch)
	if restart {
		if m.Epoch != 0 {
			if err := m.Start(m.Conf); err != nil {
				return err
			}
		}
		m.Epoch = 1
	} else if m.Epoch > 0 {
		m.Epoch++
	}
	if m.Epoch == 0 || m.Epoch > m.Conf.MaxEpoch {
		return nil
	}
	m.running = true
	m.stop = false
	go func() {
		epoch := m.Epoch
		done, quit := false, false
		start := time.Now()
		for !done && !quit {
			loss := nnet.TrainEpoch(m.Net, m.trainData, m.rng)
			done = m.test.Test(m.Net, epoch, loss, start)
			epoch, quit = m.nextEpoch(epoch, done)
		}
		if last := len(m.test.Stats) - 1; last >= 0 {
			log.Println(m.test.Stats[last])
		}
		if err := m.refresh(); err != nil {
			log.Println("refresh error:", err)
		}
		m.Lock()
		m.running = false
		m.stop = false
		m.Unlock()
		log.Println("train: end - quit =", quit)
	}()
	return nil
}

func (m *Model) nextEpoch(epoch int, done bool) (int, bool) {
	quit := false
	m.Lock()
	m.Epoch = epoch
	// check for interrupt
	if m.stop {
		m.stop = false
		quit = true
	}
	s := m.test.Stats[len(m.test.Stats)-1]
	err := m.save()
	m.Unlock()
	if err != nil {
		log.Println("nextEpoch: error saving checkpoint:", err)
	}
	if err := nnet.AppendMetrics(m.Name, s); err != nil {
		log.Println("nextEpoch: error writing metrics:", err)
	}
	// notify via websocket
	if m.conn != nil {
		msg := []byte(strconv.Itoa(epoch))
		if err := m.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Println("nextEpoch: error writing to websocket", err)
		}
	}
	return epoch + 1, quit
}

// save writes the current weights and stats as a checkpoint file.
func (m *Model) save() error {
	cp := &nnet.Checkpoint{Model: m.Name, Conf: m.Conf, Epoch: m.Epoch, Stats: m.test.Stats}
	cp.Export(m.Net)
	return nnet.SaveCheckpoint(cp)
}

// TestSet returns the name of the data set used for evaluation.
func (m *Model) TestSet() string {
	if _, ok := m.Data["test"]; ok {
		return "test"
	}
	return "train"
}

// refresh rebuilds the prediction records over the evaluation set.
func (m *Model) refresh() error {
	dset := nnet.NewDataset(m.Data[m.TestSet()], m.Conf.TestBatch, m.Conf.MaxSamples)
	recs, err := vis.Summarize(m.Net, dset.Tensor(), dset.Labels[:dset.Samples], dset.Shape()[1], m.Net.Classes())
	if err != nil {
		return err
	}
	m.Lock()
	m.Records = recs
	m.Unlock()
	return nil
}

func (m *Model) heading() template.HTML {
	s := fmt.Sprintf(`%s: epoch <span id="epoch">%d</span>/%d`, m.Name, m.Epoch, m.Conf.MaxEpoch)
	return template.HTML(s)
}
