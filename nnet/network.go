// Package nnet contains routines for constructing, training and testing
// neural network classifiers.
package nnet

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"gorgonia.org/tensor"
)

// Network type represents a multilayer neural network model.
type Network struct {
	Config
	Layers  []Layer
	inShape []int
	outSize int
}

// New function creates a new network from the config with initialised
// weights. The input shape excludes the batch dimension.
func New(conf Config, inShape []int, rng *rand.Rand) *Network {
	n := &Network{Config: conf}
	if conf.FlattenInput {
		n.inShape = []int{prod(inShape)}
	} else if len(inShape) == 2 {
		n.inShape = []int{inShape[0], inShape[1], 1}
	} else {
		n.inShape = inShape
	}
	shape := n.inShape
	for _, l := range conf.Layers {
		layer := l.Unmarshal()
		layer.Init(shape, rng)
		n.Layers = append(n.Layers, layer)
		shape = layer.OutShape()
	}
	if len(shape) != 1 {
		panic(fmt.Sprintf("network output must be flat - have shape %v", shape))
	}
	n.outSize = shape[0]
	return n
}

// Accessor for output layer
func (n *Network) OutLayer() OutputLayer {
	return n.Layers[len(n.Layers)-1].(OutputLayer)
}

// Classes returns the size of the output distribution.
func (n *Network) Classes() int { return n.outSize }

// Feed forward one example to get the predicted output
func (n *Network) Fprop(input []float64, train bool) []float64 {
	pred := input
	for i, layer := range n.Layers {
		if n.DebugLevel >= 3 {
			fmt.Printf("layer %d input %v\n", i, pred)
		}
		pred = layer.Fprop(pred, train)
	}
	return pred
}

// Predict runs inference over a batch with shape (examples, features) and
// returns one probability distribution per row in a new (examples, classes)
// tensor. Satisfies the vis.Classifier contract.
func (n *Network) Predict(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	nfeat := prod(n.inShape)
	if len(shape) != 2 || shape[1] != nfeat {
		return nil, fmt.Errorf("predict: bad input shape %v - want (n, %d)", shape, nfeat)
	}
	data, ok := x.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("predict: input must be a float64 tensor")
	}
	count := shape[0]
	probs := make([]float64, count*n.outSize)
	for i := 0; i < count; i++ {
		out := n.Fprop(data[i*nfeat:(i+1)*nfeat], false)
		copy(probs[i*n.outSize:], out)
	}
	return tensor.New(tensor.WithShape(count, n.outSize), tensor.WithBacking(probs)), nil
}

// Calculate the error rate on the dataset, if pred is not nil then also
// return the predicted class per example.
func (n *Network) Error(dset *Dataset, pred []int) float64 {
	errors := 0
	for batch := 0; batch < dset.Batches(); batch++ {
		x, labels := dset.Batch(batch)
		data := x.Data().([]float64)
		nfeat := prod(n.inShape)
		for i, label := range labels {
			out := n.Fprop(data[i*nfeat:(i+1)*nfeat], false)
			class := argmax(out)
			if class != label {
				errors++
			}
			if pred != nil {
				pred[batch*dset.BatchSize+i] = class
			}
		}
	}
	return float64(errors) / float64(dset.Samples)
}

// Loss returns the average cross entropy loss on the dataset.
func (n *Network) Loss(dset *Dataset) float64 {
	loss := 0.0
	nfeat := prod(n.inShape)
	for batch := 0; batch < dset.Batches(); batch++ {
		x, labels := dset.Batch(batch)
		data := x.Data().([]float64)
		for i, label := range labels {
			out := n.Fprop(data[i*nfeat:(i+1)*nfeat], false)
			loss += n.OutLayer().Loss(OneHot(label, n.outSize), out)
		}
	}
	return loss / float64(dset.Samples)
}

func argmax(p []float64) int {
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return best
}

// Print network description
func (n *Network) String() string {
	s := make([]string, len(n.Layers))
	shape := n.inShape
	for i, layer := range n.Layers {
		s[i] = fmt.Sprintf("%2d: %-25s %v", i, layer.ToString(), shape)
		shape = layer.OutShape()
	}
	return fmt.Sprintf("%s\n== Network ==\n%s", n.Config, strings.Join(s, "\n"))
}

// NewRng returns a seeded random source, or one seeded from the clock if
// seed <= 0.
func NewRng(seed int64) *rand.Rand {
	if seed <= 0 {
		seed = time.Now().UTC().UnixNano()
	}
	fmt.Println("random seed =", seed)
	return rand.New(rand.NewSource(seed))
}

// Exit in case of error
func CheckErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
