// Package mnist reads the MNIST handwritten digit files in idx format and
// converts them to normalized data sets for training and evaluation.
package mnist

import (
	"encoding/binary"
	"fmt"
	"os"
	"path"

	"github.com/jmb792/digitlab/nnet"
)

const (
	Width      = 28
	NumClasses = 10
	validSize  = 10000
)

type labelHeader struct{ Magic, Num uint32 }

type imageHeader struct{ Magic, Num, Height, Width uint32 }

// Prepare converts the idx files under DataDir/mnist into gob encoded data
// sets: the last validSize training images become the validation split.
// The mnist dataset is 60000 train + 10000 test images.
func Prepare() error {
	train, err := Load("train-images-idx3-ubyte", "train-labels-idx1-ubyte")
	if err != nil {
		return err
	}
	test, err := Load("t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte")
	if err != nil {
		return err
	}
	split := train.Len() - validSize
	if err := nnet.SaveDataFile(slice(train, 0, split), "mnist_train"); err != nil {
		return err
	}
	if err := nnet.SaveDataFile(slice(train, split, train.Len()), "mnist_valid"); err != nil {
		return err
	}
	return nnet.SaveDataFile(test, "mnist_test")
}

// Load reads one images and labels file pair from DataDir/mnist.
func Load(imageFile, labelFile string) (*nnet.Data, error) {
	labels, err := readLabels(labelFile)
	if err != nil {
		return nil, err
	}
	inputs, err := readImages(imageFile)
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(labels)*Width*Width {
		return nil, fmt.Errorf("mnist: have %d pixels for %d labels", len(inputs), len(labels))
	}
	return nnet.NewData(NumClasses, []int{Width, Width}, labels, inputs), nil
}

func slice(d *nnet.Data, start, end int) *nnet.Data {
	nfeat := Width * Width
	res := *d
	res.Labels = d.Labels[start:end]
	res.Inputs = d.Inputs[start*nfeat : end*nfeat]
	return &res
}

// readImages returns pixels scaled to 0..1 in storage order: display pixel
// (r, c) of image i is stored at i*w*w + (w-1-c) + r*w so that img.Reshape
// recovers the upright image.
func readImages(name string) ([]float64, error) {
	f, err := os.Open(path.Join(nnet.DataDir, "mnist", name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var head imageHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, err
	}
	n, h, w := int(head.Num), int(head.Height), int(head.Width)
	if h != Width || w != Width {
		return nil, fmt.Errorf("mnist: unexpected image size %dx%d in %s", h, w, name)
	}
	fmt.Printf("read %d %dx%d images from %s\n", n, h, w, name)
	inputs := make([]float64, n*h*w)
	pixels := make([]byte, h*w)
	for i := 0; i < n; i++ {
		if _, err = f.Read(pixels); err != nil {
			return nil, err
		}
		base := i * h * w
		for j, pix := range pixels {
			r, c := j/w, j%w
			inputs[base+(w-1-c)+r*w] = float64(pix) / 255
		}
	}
	return inputs, nil
}

func readLabels(name string) ([]int, error) {
	f, err := os.Open(path.Join(nnet.DataDir, "mnist", name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var head labelHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, err
	}
	fmt.Printf("read %d labels from %s\n", head.Num, name)
	bytes := make([]byte, head.Num)
	if _, err = f.Read(bytes); err != nil {
		return nil, err
	}
	labels := make([]int, head.Num)
	for i, label := range bytes {
		labels[i] = int(label)
	}
	return labels, nil
}
