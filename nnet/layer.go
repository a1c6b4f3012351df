package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer interface type represents one layer of the neural net. Fprop and
// Bprop operate on one example at a time, gradients are accumulated until
// the trainer applies them at the end of each batch.
type Layer interface {
	Init(inShape []int, rng *rand.Rand)
	OutShape() []int
	Fprop(in []float64, train bool) []float64
	Bprop(grad []float64) []float64
	Type() string
	ToString() string
}

// ParamLayer is a layer with weight and bias parameters
type ParamLayer interface {
	Layer
	Params() (W, B []float64)
	SetParams(W, B []float64) error
	Update(eta, decay float64, batch int)
}

// OutputLayer is the final layer in the stack
type OutputLayer interface {
	Layer
	Loss(yOneHot, yPred []float64) float64
}

// Layer configuration details
type LayerConfig struct {
	Type string
	Data json.RawMessage
}

type ConfigLayer interface {
	Marshal() LayerConfig
}

// Unmarshal JSON data and construct new layer
func (l LayerConfig) Unmarshal() Layer {
	switch l.Type {
	case "conv":
		cfg := new(Conv)
		return cfg.unmarshal(l.Data)
	case "maxPool":
		cfg := new(MaxPool)
		return cfg.unmarshal(l.Data)
	case "linear":
		cfg := new(Linear)
		return cfg.unmarshal(l.Data)
	case "activation":
		cfg := new(Activation)
		return cfg.unmarshal(l.Data)
	case "dropout":
		cfg := new(Dropout)
		return cfg.unmarshal(l.Data)
	case "flatten":
		return &flatten{}
	case "softmax":
		return &softmax{}
	default:
		panic("invalid layer type: " + l.Type)
	}
}

func (l LayerConfig) String() string {
	return l.Unmarshal().ToString()
}

func marshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func unmarshal(data json.RawMessage, v interface{}) {
	if err := json.Unmarshal(data, v); err != nil {
		panic(err)
	}
}

func prod(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Linear fully connected layer, implements ParamLayer interface.
type Linear struct {
	Nout int
}

func (c Linear) Marshal() LayerConfig {
	return LayerConfig{Type: "linear", Data: marshal(c)}
}

func (c Linear) ToString() string {
	return fmt.Sprintf("linear %+v", c)
}

func (c *Linear) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &linear{Linear: *c}
}

type linear struct {
	Linear
	nin    int
	w, b   []float64
	dw, db []float64
	x      []float64
	out    []float64
}

func (l *linear) Type() string { return "linear" }

func (l *linear) ToString() string { return l.Linear.ToString() }

func (l *linear) OutShape() []int { return []int{l.Nout} }

// Init allocates the parameters and scales initial weights by 1/sqrt(nin).
func (l *linear) Init(inShape []int, rng *rand.Rand) {
	if len(inShape) != 1 {
		panic(fmt.Sprintf("linear: input must be flat - have shape %v", inShape))
	}
	l.nin = inShape[0]
	l.w = make([]float64, l.Nout*l.nin)
	l.b = make([]float64, l.Nout)
	l.dw = make([]float64, len(l.w))
	l.db = make([]float64, len(l.b))
	l.out = make([]float64, l.Nout)
	scale := 1 / math.Sqrt(float64(l.nin))
	for i := range l.w {
		l.w[i] = rng.NormFloat64() * scale
	}
}

func (l *linear) Fprop(in []float64, train bool) []float64 {
	l.x = in
	y := mat.NewVecDense(l.Nout, l.out)
	y.MulVec(mat.NewDense(l.Nout, l.nin, l.w), mat.NewVecDense(l.nin, in))
	for i := range l.out {
		l.out[i] += l.b[i]
	}
	return l.out
}

func (l *linear) Bprop(grad []float64) []float64 {
	for i := 0; i < l.Nout; i++ {
		l.db[i] += grad[i]
		row := l.dw[i*l.nin : (i+1)*l.nin]
		for j, x := range l.x {
			row[j] += grad[i] * x
		}
	}
	dx := mat.NewVecDense(l.nin, nil)
	dx.MulVec(mat.NewDense(l.Nout, l.nin, l.w).T(), mat.NewVecDense(l.Nout, grad))
	return dx.RawVector().Data
}

func (l *linear) Params() (W, B []float64) { return l.w, l.b }

func (l *linear) SetParams(W, B []float64) error {
	if len(W) != len(l.w) || len(B) != len(l.b) {
		return fmt.Errorf("linear: size mismatch - have %d %d - expect %d %d", len(W), len(B), len(l.w), len(l.b))
	}
	copy(l.w, W)
	copy(l.b, B)
	return nil
}

func (l *linear) Update(eta, decay float64, batch int) {
	scale := eta / float64(batch)
	for i, g := range l.dw {
		l.w[i] -= scale*g + decay*l.w[i]
		l.dw[i] = 0
	}
	for i, g := range l.db {
		l.b[i] -= scale * g
		l.db[i] = 0
	}
}

// Sigmoid, tanh or relu activation layer.
type Activation struct {
	Atype string
}

func (c Activation) Marshal() LayerConfig {
	return LayerConfig{Type: "activation", Data: marshal(c)}
}

func (c Activation) ToString() string {
	return fmt.Sprintf("activation %+v", c)
}

func (c *Activation) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &activation{Activation: *c}
}

type activation struct {
	Activation
	shape []int
	x     []float64
	out   []float64
	dx    []float64
}

func (l *activation) Type() string { return "activation" }

func (l *activation) ToString() string { return l.Activation.ToString() }

func (l *activation) OutShape() []int { return l.shape }

func (l *activation) Init(inShape []int, rng *rand.Rand) {
	l.shape = inShape
	n := prod(inShape)
	l.out = make([]float64, n)
	l.dx = make([]float64, n)
}

func (l *activation) Fprop(in []float64, train bool) []float64 {
	l.x = in
	switch l.Atype {
	case "relu":
		for i, v := range in {
			l.out[i] = math.Max(v, 0)
		}
	case "tanh":
		for i, v := range in {
			l.out[i] = math.Tanh(v)
		}
	case "sigmoid":
		for i, v := range in {
			l.out[i] = 1 / (1 + math.Exp(-v))
		}
	default:
		panic("invalid activation type: " + l.Atype)
	}
	return l.out
}

func (l *activation) Bprop(grad []float64) []float64 {
	switch l.Atype {
	case "relu":
		for i, v := range l.x {
			if v > 0 {
				l.dx[i] = grad[i]
			} else {
				l.dx[i] = 0
			}
		}
	case "tanh":
		for i := range l.x {
			l.dx[i] = grad[i] * (1 - l.out[i]*l.out[i])
		}
	case "sigmoid":
		for i := range l.x {
			l.dx[i] = grad[i] * l.out[i] * (1 - l.out[i])
		}
	}
	return l.dx
}

// Convolutional layer with square kernels, implements ParamLayer interface.
type Conv struct {
	Nfeats, Size, Stride, Pad int
}

func (c Conv) Marshal() LayerConfig {
	if c.Stride == 0 {
		c.Stride = 1
	}
	return LayerConfig{Type: "conv", Data: marshal(c)}
}

func (c Conv) ToString() string {
	return fmt.Sprintf("conv %+v", c)
}

func (c *Conv) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	if c.Stride == 0 {
		c.Stride = 1
	}
	return &conv{Conv: *c}
}

type conv struct {
	Conv
	h, w, ch int
	oh, ow   int
	wt, b    []float64
	dw, db   []float64
	x        []float64
	out      []float64
	dx       []float64
}

func (l *conv) Type() string { return "conv" }

func (l *conv) ToString() string { return l.Conv.ToString() }

func (l *conv) OutShape() []int { return []int{l.oh, l.ow, l.Nfeats} }

func (l *conv) Init(inShape []int, rng *rand.Rand) {
	if len(inShape) != 3 {
		panic(fmt.Sprintf("conv: input must be h,w,channels - have shape %v", inShape))
	}
	l.h, l.w, l.ch = inShape[0], inShape[1], inShape[2]
	l.oh = (l.h+2*l.Pad-l.Size)/l.Stride + 1
	l.ow = (l.w+2*l.Pad-l.Size)/l.Stride + 1
	l.wt = make([]float64, l.Nfeats*l.ch*l.Size*l.Size)
	l.b = make([]float64, l.Nfeats)
	l.dw = make([]float64, len(l.wt))
	l.db = make([]float64, len(l.b))
	l.out = make([]float64, l.Nfeats*l.oh*l.ow)
	l.dx = make([]float64, l.ch*l.h*l.w)
	scale := 1 / math.Sqrt(float64(l.ch*l.Size*l.Size))
	for i := range l.wt {
		l.wt[i] = rng.NormFloat64() * scale
	}
}

// weight index for feature f, channel c, kernel row ky, col kx
func (l *conv) wix(f, c, ky, kx int) int {
	return ((f*l.ch+c)*l.Size+ky)*l.Size + kx
}

func (l *conv) Fprop(in []float64, train bool) []float64 {
	l.x = in
	for f := 0; f < l.Nfeats; f++ {
		for oy := 0; oy < l.oh; oy++ {
			for ox := 0; ox < l.ow; ox++ {
				sum := l.b[f]
				for c := 0; c < l.ch; c++ {
					plane := in[c*l.h*l.w:]
					for ky := 0; ky < l.Size; ky++ {
						iy := oy*l.Stride + ky - l.Pad
						if iy < 0 || iy >= l.h {
							continue
						}
						for kx := 0; kx < l.Size; kx++ {
							ix := ox*l.Stride + kx - l.Pad
							if ix < 0 || ix >= l.w {
								continue
							}
							sum += l.wt[l.wix(f, c, ky, kx)] * plane[iy*l.w+ix]
						}
					}
				}
				l.out[(f*l.oh+oy)*l.ow+ox] = sum
			}
		}
	}
	return l.out
}

func (l *conv) Bprop(grad []float64) []float64 {
	for i := range l.dx {
		l.dx[i] = 0
	}
	for f := 0; f < l.Nfeats; f++ {
		for oy := 0; oy < l.oh; oy++ {
			for ox := 0; ox < l.ow; ox++ {
				g := grad[(f*l.oh+oy)*l.ow+ox]
				l.db[f] += g
				for c := 0; c < l.ch; c++ {
					plane := l.x[c*l.h*l.w:]
					dplane := l.dx[c*l.h*l.w:]
					for ky := 0; ky < l.Size; ky++ {
						iy := oy*l.Stride + ky - l.Pad
						if iy < 0 || iy >= l.h {
							continue
						}
						for kx := 0; kx < l.Size; kx++ {
							ix := ox*l.Stride + kx - l.Pad
							if ix < 0 || ix >= l.w {
								continue
							}
							l.dw[l.wix(f, c, ky, kx)] += g * plane[iy*l.w+ix]
							dplane[iy*l.w+ix] += g * l.wt[l.wix(f, c, ky, kx)]
						}
					}
				}
			}
		}
	}
	return l.dx
}

func (l *conv) Params() (W, B []float64) { return l.wt, l.b }

func (l *conv) SetParams(W, B []float64) error {
	if len(W) != len(l.wt) || len(B) != len(l.b) {
		return fmt.Errorf("conv: size mismatch - have %d %d - expect %d %d", len(W), len(B), len(l.wt), len(l.b))
	}
	copy(l.wt, W)
	copy(l.b, B)
	return nil
}

func (l *conv) Update(eta, decay float64, batch int) {
	scale := eta / float64(batch)
	for i, g := range l.dw {
		l.wt[i] -= scale*g + decay*l.wt[i]
		l.dw[i] = 0
	}
	for i, g := range l.db {
		l.b[i] -= scale * g
		l.db[i] = 0
	}
}

// Max pooling layer, should follow conv layer.
type MaxPool struct {
	Size, Stride int
}

func (c MaxPool) Marshal() LayerConfig {
	if c.Stride == 0 {
		c.Stride = c.Size
	}
	return LayerConfig{Type: "maxPool", Data: marshal(c)}
}

func (c MaxPool) ToString() string {
	return fmt.Sprintf("maxPool %+v", c)
}

func (c *MaxPool) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	if c.Stride == 0 {
		c.Stride = c.Size
	}
	return &maxPool{MaxPool: *c}
}

type maxPool struct {
	MaxPool
	h, w, ch int
	oh, ow   int
	out      []float64
	argmax   []int
	dx       []float64
}

func (l *maxPool) Type() string { return "maxPool" }

func (l *maxPool) ToString() string { return l.MaxPool.ToString() }

func (l *maxPool) OutShape() []int { return []int{l.oh, l.ow, l.ch} }

func (l *maxPool) Init(inShape []int, rng *rand.Rand) {
	if len(inShape) != 3 {
		panic(fmt.Sprintf("maxPool: input must be h,w,channels - have shape %v", inShape))
	}
	l.h, l.w, l.ch = inShape[0], inShape[1], inShape[2]
	l.oh = (l.h-l.Size)/l.Stride + 1
	l.ow = (l.w-l.Size)/l.Stride + 1
	l.out = make([]float64, l.ch*l.oh*l.ow)
	l.argmax = make([]int, len(l.out))
	l.dx = make([]float64, l.ch*l.h*l.w)
}

func (l *maxPool) Fprop(in []float64, train bool) []float64 {
	for c := 0; c < l.ch; c++ {
		plane := in[c*l.h*l.w:]
		for oy := 0; oy < l.oh; oy++ {
			for ox := 0; ox < l.ow; ox++ {
				bestIx := oy * l.Stride * l.w
				best := math.Inf(-1)
				for ky := 0; ky < l.Size; ky++ {
					for kx := 0; kx < l.Size; kx++ {
						ix := (oy*l.Stride+ky)*l.w + ox*l.Stride + kx
						if plane[ix] > best {
							best, bestIx = plane[ix], ix
						}
					}
				}
				l.out[(c*l.oh+oy)*l.ow+ox] = best
				l.argmax[(c*l.oh+oy)*l.ow+ox] = c*l.h*l.w + bestIx
			}
		}
	}
	return l.out
}

func (l *maxPool) Bprop(grad []float64) []float64 {
	for i := range l.dx {
		l.dx[i] = 0
	}
	for i, ix := range l.argmax {
		l.dx[ix] += grad[i]
	}
	return l.dx
}

// Dropout layer keeps each input with probability Keep during training and
// rescales, passing data through unchanged when predicting.
type Dropout struct {
	Keep float64
}

func (c Dropout) Marshal() LayerConfig {
	return LayerConfig{Type: "dropout", Data: marshal(c)}
}

func (c Dropout) ToString() string {
	return fmt.Sprintf("dropout %+v", c)
}

func (c *Dropout) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &dropout{Dropout: *c}
}

type dropout struct {
	Dropout
	shape []int
	rng   *rand.Rand
	mask  []bool
	out   []float64
	dx    []float64
}

func (l *dropout) Type() string { return "dropout" }

func (l *dropout) ToString() string { return l.Dropout.ToString() }

func (l *dropout) OutShape() []int { return l.shape }

func (l *dropout) Init(inShape []int, rng *rand.Rand) {
	l.shape = inShape
	l.rng = rng
	n := prod(inShape)
	l.mask = make([]bool, n)
	l.out = make([]float64, n)
	l.dx = make([]float64, n)
}

func (l *dropout) Fprop(in []float64, train bool) []float64 {
	if !train {
		return in
	}
	for i, v := range in {
		l.mask[i] = l.rng.Float64() < l.Keep
		if l.mask[i] {
			l.out[i] = v / l.Keep
		} else {
			l.out[i] = 0
		}
	}
	return l.out
}

func (l *dropout) Bprop(grad []float64) []float64 {
	for i, on := range l.mask {
		if on {
			l.dx[i] = grad[i] / l.Keep
		} else {
			l.dx[i] = 0
		}
	}
	return l.dx
}

// Flatten layer reshapes the input to a flat vector.
type Flatten struct{}

func (c Flatten) Marshal() LayerConfig {
	return LayerConfig{Type: "flatten"}
}

type flatten struct {
	n int
}

func (l *flatten) Type() string { return "flatten" }

func (l *flatten) ToString() string { return "flatten" }

func (l *flatten) OutShape() []int { return []int{l.n} }

func (l *flatten) Init(inShape []int, rng *rand.Rand) { l.n = prod(inShape) }

func (l *flatten) Fprop(in []float64, train bool) []float64 { return in }

func (l *flatten) Bprop(grad []float64) []float64 { return grad }

// Softmax output layer with cross entropy loss.
type Softmax struct{}

func (c Softmax) Marshal() LayerConfig {
	return LayerConfig{Type: "softmax"}
}

type softmax struct {
	n   int
	out []float64
}

func (l *softmax) Type() string { return "softmax" }

func (l *softmax) ToString() string { return "softmax" }

func (l *softmax) OutShape() []int { return []int{l.n} }

func (l *softmax) Init(inShape []int, rng *rand.Rand) {
	if len(inShape) != 1 {
		panic(fmt.Sprintf("softmax: input must be flat - have shape %v", inShape))
	}
	l.n = inShape[0]
	l.out = make([]float64, l.n)
}

func (l *softmax) Fprop(in []float64, train bool) []float64 {
	max := in[0]
	for _, v := range in[1:] {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	for i, v := range in {
		l.out[i] = math.Exp(v - max)
		sum += l.out[i]
	}
	for i := range l.out {
		l.out[i] /= sum
	}
	return l.out
}

// Bprop expects the combined softmax + cross entropy gradient yPred-yOneHot
// which passes through unchanged.
func (l *softmax) Bprop(grad []float64) []float64 { return grad }

func (l *softmax) Loss(yOneHot, yPred []float64) float64 {
	loss := 0.0
	for i, y := range yOneHot {
		if y != 0 {
			loss -= y * math.Log(math.Max(yPred[i], 1e-12))
		}
	}
	return loss
}
