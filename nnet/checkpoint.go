package nnet

import (
	"encoding/gob"
	"fmt"
	"os"
	"path"
)

// Checkpoint holds a serialized snapshot of a trained network so training
// can be skipped when a model file already exists.
type Checkpoint struct {
	Model  string
	Conf   Config
	Epoch  int
	Stats  []Stats
	Params []LayerData
}

type LayerData struct {
	Layer   int
	Weights []float64
	Biases  []float64
}

// Export captures the current layer parameters from the network.
func (c *Checkpoint) Export(net *Network) {
	c.Params = []LayerData{}
	for i, layer := range net.Layers {
		if l, ok := layer.(ParamLayer); ok {
			W, B := l.Params()
			d := LayerData{
				Layer:   i,
				Weights: append([]float64{}, W...),
				Biases:  append([]float64{}, B...),
			}
			c.Params = append(c.Params, d)
		}
	}
}

// Import restores saved layer parameters into the network.
func (c *Checkpoint) Import(net *Network) error {
	nlayers := len(net.Layers)
	for _, p := range c.Params {
		if p.Layer >= nlayers {
			return fmt.Errorf("layer %d import error: network has %d layers total", p.Layer, nlayers)
		}
		layer, ok := net.Layers[p.Layer].(ParamLayer)
		if !ok {
			return fmt.Errorf("layer %d import error: not a ParamLayer", p.Layer)
		}
		if err := layer.SetParams(p.Weights, p.Biases); err != nil {
			return fmt.Errorf("layer %d import error: %s", p.Layer, err)
		}
	}
	return nil
}

// Encode checkpoint in gob format and save as <model>.net under DataDir
func SaveCheckpoint(c *Checkpoint) error {
	filePath := path.Join(DataDir, c.Model+".net")
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(c)
}

// Read back a gob encoded checkpoint file.
func LoadCheckpoint(model string) (*Checkpoint, error) {
	f, err := os.Open(path.Join(DataDir, model+".net"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c := new(Checkpoint)
	if err := gob.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}
	return c, nil
}

// HaveCheckpoint reports whether a saved model exists.
func HaveCheckpoint(model string) bool {
	return FileExists(model + ".net")
}
