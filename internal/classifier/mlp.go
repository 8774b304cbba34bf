package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Activation names accepted in an MLP file.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationTanh    = "tanh"
	ActivationSoftmax = "softmax"
)

// maxModelFileSize guards against loading something that is clearly not a
// small dense network.
const maxModelFileSize = 32 * 1024 * 1024

// LayerSpec is one dense layer as stored on disk. Weights has one row per
// output unit.
type LayerSpec struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

// MLPSpec is the JSON file layout of a dense network.
type MLPSpec struct {
	Layers []LayerSpec `json:"layers"`
}

type layer struct {
	w          *mat.Dense
	b          *mat.VecDense
	activation string
}

// MLP is a feed-forward dense network evaluated with gonum.
type MLP struct {
	layers []layer
	in     int
	out    int
}

// LoadMLP reads a network from a JSON file.
func LoadMLP(path string) (*MLP, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat model: %w", err)
	}
	if info.Size() > maxModelFileSize {
		return nil, fmt.Errorf("model file %s too large: %d bytes", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var spec MLPSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}

	m, err := NewMLP(spec)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// NewMLP validates spec and builds the network. Each layer's input width
// must match the previous layer's output width.
func NewMLP(spec MLPSpec) (*MLP, error) {
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("network has no layers")
	}

	m := &MLP{}
	for i, ls := range spec.Layers {
		rows := len(ls.Weights)
		if rows == 0 {
			return nil, fmt.Errorf("layer %d has no weights", i)
		}
		cols := len(ls.Weights[0])
		if cols == 0 {
			return nil, fmt.Errorf("layer %d has empty weight rows", i)
		}
		if len(ls.Biases) != rows {
			return nil, fmt.Errorf("layer %d: %d biases for %d units", i, len(ls.Biases), rows)
		}
		if i == 0 {
			m.in = cols
		} else if cols != m.out {
			return nil, fmt.Errorf("%w: layer %d takes %d inputs, previous layer outputs %d", ErrShapeMismatch, i, cols, m.out)
		}

		flat := make([]float64, 0, rows*cols)
		for r, row := range ls.Weights {
			if len(row) != cols {
				return nil, fmt.Errorf("layer %d row %d has %d weights, want %d", i, r, len(row), cols)
			}
			flat = append(flat, row...)
		}

		act := ls.Activation
		if act == "" {
			act = ActivationLinear
		}
		switch act {
		case ActivationLinear, ActivationReLU, ActivationTanh, ActivationSoftmax:
		default:
			return nil, fmt.Errorf("layer %d: unknown activation %q", i, act)
		}

		m.layers = append(m.layers, layer{
			w:          mat.NewDense(rows, cols, flat),
			b:          mat.NewVecDense(rows, append([]float64(nil), ls.Biases...)),
			activation: act,
		})
		m.out = rows
	}

	return m, nil
}

func (m *MLP) InputSize() int  { return m.in }
func (m *MLP) NumClasses() int { return m.out }

// Scores runs a forward pass. The network is never mutated, so concurrent
// calls are safe.
func (m *MLP) Scores(features []float64) ([]float64, error) {
	if len(features) != m.in {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), m.in)
	}

	x := mat.NewVecDense(len(features), append([]float64(nil), features...))
	for _, l := range m.layers {
		rows, _ := l.w.Dims()
		y := mat.NewVecDense(rows, nil)
		y.MulVec(l.w, x)
		y.AddVec(y, l.b)
		activate(l.activation, y.RawVector().Data)
		x = y
	}

	return append([]float64(nil), x.RawVector().Data...), nil
}

func activate(name string, v []float64) {
	switch name {
	case ActivationReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case ActivationTanh:
		for i, x := range v {
			v[i] = math.Tanh(x)
		}
	case ActivationSoftmax:
		maxV := floats.Max(v)
		for i, x := range v {
			v[i] = math.Exp(x - maxV)
		}
		floats.Scale(1/floats.Sum(v), v)
	}
}
