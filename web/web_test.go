package web

import (
	"testing"

	"github.com/jmb792/digitlab/nnet"
)

func TestMenuSelect(t *testing.T) {
	m := &Templates{}
	m.AddMenuItem(Link{Url: "/train", Name: "train"})
	m.AddMenuItem(Link{Url: "/images", Name: "images"})
	m.AddOption(Link{Url: "/train/start", Name: "start"})
	m.AddOption(Link{Url: "/train/stop", Name: "stop"})
	m.Select("/images")
	if m.Menu[0].Selected || !m.Menu[1].Selected {
		t.Errorf("menu select: %+v", m.Menu)
	}
	m.SelectOptions([]string{"stop"})
	if m.Options[0].Selected || !m.Options[1].Selected {
		t.Errorf("option select: %+v", m.Options)
	}
}

func TestConfigFields(t *testing.T) {
	conf := nnet.Config{DataSet: "mnist", Eta: 0.1, Shuffle: true}.AddLayers(
		nnet.Linear{Nout: 10},
		nnet.Softmax{},
	)
	fields := getFields(conf)
	if len(fields) == 0 || fields[0].Name != "DataSet" || fields[0].Value != "mnist" {
		t.Errorf("fields: %+v", fields)
	}
	for _, f := range fields {
		if f.Name == "Shuffle" && (!f.Boolean || !f.On) {
			t.Errorf("Shuffle field: %+v", f)
		}
	}
	layers := getLayers(conf)
	if len(layers) != 2 || layers[1].Index != 1 {
		t.Errorf("layers: %+v", layers)
	}
}

func TestLinePlotRange(t *testing.T) {
	stats := []nnet.Stats{
		{Epoch: 1, Loss: 2.5},
		{Epoch: 2, Loss: 1.5},
		{Epoch: 3, Loss: 0.5},
	}
	l := newLinePlot(stats, 0, 1)
	xmin, xmax, ymin, ymax := l.DataRange()
	if xmin != 1 || xmax != 3 || ymin != 0 || ymax != 2.5 {
		t.Errorf("range: %g %g %g %g", xmin, xmax, ymin, ymax)
	}
}

func TestSeqMod(t *testing.T) {
	if s := seq(3); len(s) != 3 || s[2] != 2 {
		t.Errorf("seq: %v", s)
	}
	if mod(0, 1, 5) != 5 || mod(6, 1, 5) != 1 || mod(3, 1, 5) != 3 {
		t.Error("mod wraparound")
	}
}
