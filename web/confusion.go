package web

import (
	"fmt"
	"html/template"
	"image/png"
	"net/http"

	"github.com/jmb792/digitlab/img"
	"github.com/jmb792/digitlab/vis"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

type ConfusionPage struct {
	*Templates
	Scale int
	net   *Model
}

type ClassRow struct {
	Class   string
	Count   int
	Correct int
	Entropy string
}

// Base data for handler functions to show the confusion matrix and the per
// class prediction entropy.
func NewConfusionPage(t *Templates, net *Model, scale int) *ConfusionPage {
	p := &ConfusionPage{net: net, Scale: scale}
	p.Templates = t.Select("/confusion")
	return p
}

// Handler function for the confusion template
func (p *ConfusionPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		p.Heading = p.net.heading()
		name := "confusion"
		if len(p.net.Records) == 0 {
			name = "blank"
		}
		p.Exec(w, name, p)
	}
}

// Handler function for the confusion matrix image. Each tile is the most
// confident example for that predicted and true class pair, brightness
// scales with the pair count.
func (p *ConfusionPage) Matrix() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		if len(p.net.Records) == 0 {
			http.NotFound(w, r)
			return
		}
		data := p.net.Data[p.net.TestSet()]
		grid := vis.Confusion(p.net.Records, len(data.Classes()), data.Shape()[1])
		w.Header().Set("Content-type", "image/png")
		png.Encode(w, img.Render(grid, img.Heat))
	}
}

// Size returns the confusion matrix display size in pixels.
func (p *ConfusionPage) Size() int {
	data := p.net.Data[p.net.TestSet()]
	return len(data.Classes()) * data.Shape()[1] * p.Scale
}

func (p *ConfusionPage) Accuracy() string {
	return fmt.Sprintf("%.2f%%", vis.Accuracy(p.net.Records)*100)
}

// ClassRows lists predicted count, correct count and mean entropy per class.
func (p *ConfusionPage) ClassRows() []ClassRow {
	data := p.net.Data[p.net.TestSet()]
	classes := data.Classes()
	avg := vis.MeanEntropy(p.net.Records)
	counts := vis.Counts(p.net.Records, len(classes))
	rows := make([]ClassRow, len(classes))
	for i, class := range classes {
		row := ClassRow{Class: class, Entropy: "-"}
		for label := range classes {
			row.Count += counts[i*len(classes)+label]
		}
		row.Correct = counts[i*len(classes)+i]
		if e, ok := avg[i]; ok {
			row.Entropy = fmt.Sprintf("%.4f", e)
		}
		rows[i] = row
	}
	return rows
}

// EntropyPlot draws a bar chart of the mean prediction entropy per class.
func (p *ConfusionPage) EntropyPlot(width, height int) template.HTML {
	plt := newPlot()
	plt.Y.Label.Text = "mean entropy"
	data := p.net.Data[p.net.TestSet()]
	avg := vis.MeanEntropy(p.net.Records)
	vals := make(plotter.Values, len(data.Classes()))
	for class := range vals {
		vals[class] = avg[class]
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(16))
	if err != nil {
		return ""
	}
	bars.Color = plotutil.Color(2)
	plt.Add(bars)
	plt.NominalX(data.Classes()...)
	return writePlot(plt, width, height)
}
