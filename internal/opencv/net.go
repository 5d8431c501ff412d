package opencv

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"gocv.io/x/gocv"

	"github.com/junsooki/moodballoon/internal/classify"
)

// Input tensor layouts accepted by NewNet.
const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// Net runs an ONNX emotion model through the OpenCV DNN module.
type Net struct {
	mu    sync.Mutex
	net   gocv.Net
	sizes []int
}

// NewNet loads the ONNX model at path. layout selects the input tensor shape
// the model was exported with.
func NewNet(path, layout string) (*Net, error) {
	var sizes []int
	switch layout {
	case LayoutNHWC, "":
		sizes = []int{1, classify.InputSize, classify.InputSize, 1}
	case LayoutNCHW:
		sizes = []int{1, 1, classify.InputSize, classify.InputSize}
	default:
		return nil, fmt.Errorf("unknown input layout %q", layout)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", classify.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("stat model: %w", err)
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("load model %s: empty network", path)
	}
	return &Net{net: net, sizes: sizes}, nil
}

// Predict returns one score per label for a normalised face.
func (n *Net) Predict(input []float32) ([]float32, error) {
	if len(input) != classify.InputSize*classify.InputSize {
		return nil, fmt.Errorf("input has %d values, want %d", len(input), classify.InputSize*classify.InputSize)
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&input[0])), len(input)*4)
	blob, err := gocv.NewMatWithSizesFromBytes(n.sizes, gocv.MatTypeCV32F, raw)
	if err != nil {
		return nil, fmt.Errorf("input blob: %w", err)
	}
	defer blob.Close()

	n.mu.Lock()
	defer n.mu.Unlock()

	n.net.SetInput(blob, "")
	out := n.net.Forward("")
	defer out.Close()
	runtime.KeepAlive(input)

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	// data aliases the output Mat, which is freed on return.
	scores := make([]float32, len(data))
	copy(scores, data)
	return scores, nil
}

func (n *Net) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.net.Close()
}
