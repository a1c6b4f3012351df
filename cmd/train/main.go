// Train a model from the command line. If a checkpoint file already exists
// then training is skipped and the saved weights are evaluated, use -retrain
// to start from scratch. Writes the per class sample grid and the confusion
// matrix as png files under the data directory.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"

	"github.com/jmb792/digitlab/img"
	"github.com/jmb792/digitlab/nnet"
	"github.com/jmb792/digitlab/vis"
)

func writePng(name string, im *image.NRGBA) {
	filePath := path.Join(nnet.DataDir, name)
	f, err := os.Create(filePath)
	nnet.CheckErr(err)
	defer f.Close()
	nnet.CheckErr(png.Encode(f, im))
	fmt.Println("saved", filePath)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: train [opts] <model>")
		os.Exit(1)
	}
	model := os.Args[len(os.Args)-1]
	fmt.Println("load model:", model)
	conf, err := nnet.LoadConfig(model + ".conf")
	nnet.CheckErr(err)

	// override config settings from command line
	retrain := flag.Bool("retrain", false, "discard any saved checkpoint and retrain")
	perClass := flag.Int("grid", 8, "images per class in the sample grid")
	flag.Float64Var(&conf.Eta, "eta", conf.Eta, "learning rate")
	flag.Float64Var(&conf.Lambda, "lambda", conf.Lambda, "weight decay parameter")
	flag.Int64Var(&conf.RandSeed, "seed", conf.RandSeed, "random number seed")
	flag.IntVar(&conf.MaxEpoch, "epochs", conf.MaxEpoch, "max epochs")
	flag.IntVar(&conf.MaxSamples, "samples", conf.MaxSamples, "max samples")
	flag.IntVar(&conf.TrainBatch, "batch", conf.TrainBatch, "train batch size")
	flag.IntVar(&conf.TestBatch, "testbatch", conf.TestBatch, "test batch size")
	flag.IntVar(&conf.DebugLevel, "debug", conf.DebugLevel, "debug logging level")
	flag.Parse()

	// load training and test data
	data, err := nnet.LoadData(conf.DataSet)
	nnet.CheckErr(err)
	rng := nnet.NewRng(conf.RandSeed)
	trainData := nnet.NewDataset(data["train"], conf.TrainBatch, conf.MaxSamples)
	net := nnet.New(conf, trainData.Shape(), rng)
	fmt.Println(net)

	if nnet.HaveCheckpoint(model) && !*retrain {
		cp, err := nnet.LoadCheckpoint(model)
		nnet.CheckErr(err)
		nnet.CheckErr(cp.Import(net))
		fmt.Printf("loaded checkpoint at epoch %d - skipping training\n", cp.Epoch)
	} else {
		nnet.CheckErr(nnet.RemoveMetrics(model))
		logger := nnet.NewCSVLogger(model, conf, data)
		nnet.Train(net, trainData, logger, rng)
		stats := logger.Base.Stats
		cp := &nnet.Checkpoint{Model: model, Conf: conf, Stats: stats}
		if len(stats) > 0 {
			cp.Epoch = stats[len(stats)-1].Epoch
		}
		cp.Export(net)
		nnet.CheckErr(nnet.SaveCheckpoint(cp))
	}

	// evaluate on the test set
	testSet := "test"
	if _, ok := data[testSet]; !ok {
		testSet = "train"
	}
	test := nnet.NewDataset(data[testSet], conf.TestBatch, conf.MaxSamples)
	width := test.Shape()[1]
	recs, err := vis.Summarize(net, test.Tensor(), test.Labels[:test.Samples], width, net.Classes())
	nnet.CheckErr(err)
	fmt.Printf("%s accuracy: %.2f%%\n", testSet, vis.Accuracy(recs)*100)
	avg := vis.MeanEntropy(recs)
	for class := 0; class < net.Classes(); class++ {
		if e, ok := avg[class]; ok {
			fmt.Printf("class %d: mean entropy %.4f\n", class, e)
		} else {
			fmt.Printf("class %d: never predicted\n", class)
		}
	}

	grid, err := vis.SampleGrid(data["train"].ByClass(), net.Classes(), *perClass, rng)
	nnet.CheckErr(err)
	writePng(model+"_samples.png", img.Render(grid, img.Gray))
	writePng(model+"_confusion.png", img.Render(vis.Confusion(recs, net.Classes(), width), img.Heat))
}
