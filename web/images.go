package web

import (
	"fmt"
	"image/png"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmb792/digitlab/img"
	"github.com/jmb792/digitlab/vis"
)

type ImagePage struct {
	*Templates
	Dset     string
	Class    int
	Page     int
	Errors   bool
	Rows     []int
	Cols     []int
	Width    int
	Height   int
	Pages    int
	Total    int
	PerClass int
	net      *Model
	rng      *rand.Rand
}

// Base data for handler functions to view the input image data sets
func NewImagePage(t *Templates, net *Model, scale float64, rows, cols int) *ImagePage {
	p := &ImagePage{net: net, Templates: t, Page: 1, PerClass: cols}
	p.rng = rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	for _, name := range []string{"all", "errors", "prev", "next"} {
		p.AddOption(Link{Name: name, Url: "./opt/" + name})
	}
	dims := net.Data["train"].Shape()
	p.Width = int(float64(dims[1]) * scale)
	p.Height = int(float64(dims[0]) * scale)
	p.Rows = seq(rows)
	p.Cols = seq(cols)
	return p
}

// Handler to redirect to the last viewed data set
func (p *ImagePage) Home() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		dset := p.sessionVal(r, "imageDset", p.net.TestSet())
		http.Redirect(w, r, "/images/"+dset+"/", http.StatusFound)
	}
}

// Handler function for the main image page
func (p *ImagePage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		vars := mux.Vars(r)
		p.Dset = vars["dset"]
		if vars["class"] != "" {
			p.Class, _ = strconv.Atoi(vars["class"])
		}
		base := "/images/" + p.Dset + "/"
		p.Select(base)
		sel := []string{"all"}
		if p.Errors {
			sel = []string{"errors"}
		}
		p.SelectOptions(sel)
		p.Heading = p.net.heading()
		p.saveSession(w, r, "imageDset", p.Dset)
		name := "blank"
		if d, ok := p.net.Data[p.Dset]; ok {
			name = "images"
			p.Dropdown = []Link{{Name: "all classes", Url: base + "0"}}
			for i, class := range d.Classes() {
				p.Dropdown = append(p.Dropdown, Link{Name: class, Url: base + strconv.Itoa(i+1), Selected: i+1 == p.Class})
			}
			p.Total, p.Pages = p.pageCount()
			if p.Page > p.Pages || p.Page < 1 {
				p.Page = 1
			}
		} else {
			p.Dropdown = nil
		}
		p.Exec(w, name, p)
	}
}

// Set option from top menu
func (p *ImagePage) Setopt() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		vars := mux.Vars(r)
		p.Dset = vars["dset"]
		p.Total, p.Pages = p.pageCount()
		switch vars["opt"] {
		case "all":
			p.Errors = false
		case "errors":
			p.Errors = true
		case "prev":
			p.Page = mod(p.Page-1, 1, p.Pages)
		case "next":
			p.Page = mod(p.Page+1, 1, p.Pages)
		}
		http.Redirect(w, r, "/images/"+p.Dset+"/", http.StatusFound)
	}
}

func (p *ImagePage) pageCount() (nimg, pages int) {
	d, ok := p.net.Data[p.Dset]
	if !ok {
		return 0, 1
	}
	for i := range d.Labels {
		if p.showImage(i) {
			nimg++
		}
	}
	perPage := len(p.Rows) * len(p.Cols)
	pages = nimg / perPage
	if nimg%perPage != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return nimg, pages
}

func (p *ImagePage) showImage(i int) bool {
	labels := p.net.Data[p.Dset].Labels
	if i >= len(labels) {
		return false
	}
	show := p.Class == 0 || labels[i] == p.Class-1
	if p.Errors {
		pred := p.predict(i + 1)
		show = show && pred >= 0 && pred != labels[i]
	}
	return show
}

// Index returns the one based image id at the given grid position, or 0.
func (p *ImagePage) Index(row, col int) int {
	cols := len(p.Cols)
	index := (p.Page-1)*len(p.Rows)*cols + row*cols + col
	for i := range p.net.Data[p.Dset].Labels {
		if p.showImage(i) {
			index--
			if index < 0 {
				return i + 1
			}
		}
	}
	return 0
}

func (p *ImagePage) label(i int) int {
	labels := p.net.Data[p.Dset].Labels
	if i < 1 || i > len(labels) {
		return -1
	}
	return labels[i-1]
}

// predict returns the predicted class for one based image id i, or -1 if
// there are no predictions for this data set.
func (p *ImagePage) predict(i int) int {
	if p.Dset != p.net.TestSet() || i < 1 || i > len(p.net.Records) {
		return -1
	}
	return p.net.Records[i-1].Predicted
}

func (p *ImagePage) Label(i int) string {
	lab := p.label(i)
	text := strconv.Itoa(lab)
	if pred := p.predict(i); pred >= 0 && pred != lab {
		text += fmt.Sprintf(" => %d", pred)
	}
	return text
}

// Handler function for the image data, mispredicted images are rendered in
// the heat palette so they stand out.
func (p *ImagePage) Image() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		vars := mux.Vars(r)
		dset := vars["dset"]
		id, _ := strconv.Atoi(vars["id"])
		data, ok := p.net.Data[dset]
		if !ok || id < 1 || id > data.Len() {
			http.NotFound(w, r)
			return
		}
		p.Dset = dset
		pal := img.Gray
		if pred := p.predict(id); pred >= 0 && pred != p.label(id) {
			pal = img.Heat
		}
		w.Header().Set("Content-type", "image/png")
		png.Encode(w, img.Render(data.Image(id-1), pal))
	}
}

// Handler function for the per class sample grid image
func (p *ImagePage) SampleGrid() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		dset := mux.Vars(r)["dset"]
		data, ok := p.net.Data[dset]
		if !ok {
			http.NotFound(w, r)
			return
		}
		grid, err := vis.SampleGrid(data.ByClass(), len(data.Classes()), p.PerClass, p.rng)
		if err != nil {
			logError(w, err)
			return
		}
		w.Header().Set("Content-type", "image/png")
		png.Encode(w, img.Render(grid, img.Gray))
	}
}

// GridWidth returns the sample grid display width in pixels.
func (p *ImagePage) GridWidth() int {
	return p.PerClass * p.Width
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func mod(i, min, max int) int {
	if i < min {
		i = max
	}
	if i > max {
		i = min
	}
	return i
}
