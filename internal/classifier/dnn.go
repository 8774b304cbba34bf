package classifier

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// DNN scores feature vectors with an OpenCV dnn network (ONNX, TensorFlow
// frozen graph, Caffe, ...). The network input is a 1xN float32 blob.
type DNN struct {
	mu         sync.Mutex
	net        gocv.Net
	inputSize  int
	numClasses int
}

// LoadDNN reads a network with gocv.ReadNet. OpenCV cannot report the
// expected shapes of an arbitrary graph, so the caller supplies them.
func LoadDNN(path string, inputSize, numClasses int) (*DNN, error) {
	if inputSize <= 0 || numClasses <= 0 {
		return nil, fmt.Errorf("dnn model %s: input size and class count are required", path)
	}

	net := gocv.ReadNet(path, "")
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("dnn model %s: failed to load", path)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &DNN{
		net:        net,
		inputSize:  inputSize,
		numClasses: numClasses,
	}, nil
}

func (d *DNN) InputSize() int  { return d.inputSize }
func (d *DNN) NumClasses() int { return d.numClasses }

// Scores runs one forward pass. gocv.Net is not safe for concurrent use.
func (d *DNN) Scores(features []float64) ([]float64, error) {
	if len(features) != d.inputSize {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), d.inputSize)
	}

	blob := gocv.NewMatWithSize(1, d.inputSize, gocv.MatTypeCV32F)
	defer blob.Close()
	for i, v := range features {
		blob.SetFloatAt(0, i, float32(v))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read dnn output: %w", err)
	}
	if len(data) != d.numClasses {
		return nil, fmt.Errorf("%w: network produced %d scores, want %d", ErrShapeMismatch, len(data), d.numClasses)
	}

	scores := make([]float64, len(data))
	for i, v := range data {
		scores[i] = float64(v)
	}
	return scores, nil
}

func (d *DNN) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
