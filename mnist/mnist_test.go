package mnist

import (
	"encoding/binary"
	"os"
	"path"
	"testing"

	"github.com/jmb792/digitlab/nnet"
)

// write a synthetic idx file pair with the given labels, image i has pixel
// (r=1, c=2) set to 255 and everything else zero
func writeIdx(t *testing.T, labels []byte) {
	t.Helper()
	dir := path.Join(nnet.DataDir, "mnist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path.Join(dir, "train-images-idx3-ubyte"))
	if err != nil {
		t.Fatal(err)
	}
	head := imageHeader{Magic: 2051, Num: uint32(len(labels)), Height: Width, Width: Width}
	binary.Write(f, binary.BigEndian, &head)
	pixels := make([]byte, Width*Width)
	pixels[1*Width+2] = 255
	for range labels {
		f.Write(pixels)
	}
	f.Close()

	f, err = os.Create(path.Join(dir, "train-labels-idx1-ubyte"))
	if err != nil {
		t.Fatal(err)
	}
	binary.Write(f, binary.BigEndian, &labelHeader{Magic: 2049, Num: uint32(len(labels))})
	f.Write(labels)
	f.Close()
}

func TestLoad(t *testing.T) {
	saved := nnet.DataDir
	nnet.DataDir = t.TempDir()
	defer func() { nnet.DataDir = saved }()

	writeIdx(t, []byte{3, 1, 4, 1, 5})
	d, err := Load("train-images-idx3-ubyte", "train-labels-idx1-ubyte")
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 5 || d.Labels[2] != 4 {
		t.Fatalf("len=%d labels=%v", d.Len(), d.Labels)
	}
	if s := d.Shape(); s[0] != Width || s[1] != Width {
		t.Errorf("shape: %v", s)
	}
	// reshaping must put the marked pixel back at display row 1, col 2
	im := d.Image(0)
	if im.At(1, 2) != 1 {
		t.Errorf("pixel (1,2) = %g, want 1 (normalized)", im.At(1, 2))
	}
	sum := 0.0
	for _, v := range im.Pix {
		sum += v
	}
	if sum != 1 {
		t.Errorf("pixel sum %g, want exactly one set pixel", sum)
	}
}

func TestLoadMissing(t *testing.T) {
	saved := nnet.DataDir
	nnet.DataDir = t.TempDir()
	defer func() { nnet.DataDir = saved }()

	if _, err := Load("no-such-file", "no-such-file"); err == nil {
		t.Error("expected error for missing idx files")
	}
}
