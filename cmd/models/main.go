// Write the default model config files: a single hidden layer dense net, a
// deeper dense net with dropout and a convolutional net.
package main

import (
	"fmt"

	"github.com/jmb792/digitlab/nnet"
)

func save(name string, conf nnet.Config) {
	fmt.Println(conf)
	nnet.CheckErr(conf.Save(name + ".conf"))
}

func main() {
	save("dense16", nnet.Config{
		DataSet:      "mnist",
		Eta:          0.5,
		TrainBatch:   10,
		TestBatch:    100,
		MaxEpoch:     20,
		StopAfter:    2,
		Shuffle:      true,
		FlattenInput: true,
	}.AddLayers(
		nnet.Linear{Nout: 16},
		nnet.Activation{Atype: "tanh"},
		nnet.Linear{Nout: 10},
		nnet.Softmax{},
	))

	save("densedeep", nnet.Config{
		DataSet:      "mnist",
		Eta:          0.2,
		Lambda:       3,
		TrainBatch:   10,
		TestBatch:    100,
		MaxEpoch:     30,
		StopAfter:    2,
		Shuffle:      true,
		FlattenInput: true,
	}.AddLayers(
		nnet.Linear{Nout: 256},
		nnet.Activation{Atype: "relu"},
		nnet.Dropout{Keep: 0.8},
		nnet.Linear{Nout: 128},
		nnet.Activation{Atype: "relu"},
		nnet.Dropout{Keep: 0.8},
		nnet.Linear{Nout: 10},
		nnet.Softmax{},
	))

	save("convnet", nnet.Config{
		DataSet:    "mnist",
		Eta:        0.05,
		Lambda:     5,
		TrainBatch: 10,
		TestBatch:  100,
		MaxEpoch:   10,
		StopAfter:  2,
		Shuffle:    true,
	}.AddLayers(
		nnet.Conv{Nfeats: 32, Size: 3, Pad: 1},
		nnet.Activation{Atype: "relu"},
		nnet.MaxPool{Size: 2},
		nnet.Conv{Nfeats: 64, Size: 3, Pad: 1},
		nnet.Activation{Atype: "relu"},
		nnet.MaxPool{Size: 2},
		nnet.Flatten{},
		nnet.Linear{Nout: 128},
		nnet.Activation{Atype: "tanh"},
		nnet.Dropout{Keep: 0.8},
		nnet.Linear{Nout: 256},
		nnet.Activation{Atype: "tanh"},
		nnet.Dropout{Keep: 0.8},
		nnet.Linear{Nout: 10},
		nnet.Softmax{},
	))
}
