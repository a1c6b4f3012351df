// Convert the MNIST idx files under DataDir/mnist into gob encoded data
// sets for training, validation and test.
package main

import (
	"github.com/jmb792/digitlab/mnist"
	"github.com/jmb792/digitlab/nnet"
)

func main() {
	nnet.CheckErr(mnist.Prepare())
}
