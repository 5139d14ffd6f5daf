package nn

import "github.com/born-ml/mlp/internal/matrix"

// Phase selects one of a layer's two buffer bundles. Training and prediction
// never share storage, so a Predict call cannot disturb a training pass.
type Phase int

// Buffer phases.
const (
	Training Phase = iota
	Prediction
)

func (p Phase) String() string {
	if p == Prediction {
		return "prediction"
	}
	return "training"
}

// buffers holds the per-batch working storage of one layer.
//
// The prediction bundle only uses weightedInput and activation. The training
// bundle also carries everything CalculateGradients and Step write to.
type buffers struct {
	batchSize int

	weightedInput *matrix.Matrix // outputSize × batch
	activation    *matrix.Matrix // outputSize × batch

	gradient       *matrix.Matrix // dL/dZ, outputSize × batch
	upstream       *matrix.Matrix // nextWᵀ × next gradient, outputSize × batch
	derivative     *matrix.Matrix // act'(z), outputSize × batch
	nextWeightsT   *matrix.Matrix // outputSize × nextOutputSize
	inputT         *matrix.Matrix // batch × inputSize
	weightGradient *matrix.Matrix // outputSize × inputSize
	biasGradient   *matrix.Matrix // outputSize × 1
	weightUpdate   *matrix.Matrix // lr·weightGradient
	biasUpdate     *matrix.Matrix // lr·biasGradient
}

// newBuffers allocates a bundle. nextOutputSize is 0 for the last layer,
// which needs no upstream storage.
func newBuffers(phase Phase, inputSize, outputSize, nextOutputSize, batchSize int) *buffers {
	b := &buffers{
		batchSize:     batchSize,
		weightedInput: matrix.New(outputSize, batchSize),
		activation:    matrix.New(outputSize, batchSize),
	}
	if phase == Prediction {
		return b
	}

	b.gradient = matrix.New(outputSize, batchSize)
	b.inputT = matrix.New(batchSize, inputSize)
	b.weightGradient = matrix.New(outputSize, inputSize)
	b.biasGradient = matrix.New(outputSize, 1)
	b.weightUpdate = matrix.New(outputSize, inputSize)
	b.biasUpdate = matrix.New(outputSize, 1)
	if nextOutputSize > 0 {
		b.upstream = matrix.New(outputSize, batchSize)
		b.derivative = matrix.New(outputSize, batchSize)
		b.nextWeightsT = matrix.New(outputSize, nextOutputSize)
	}
	return b
}

// release drops every matrix in the bundle. Release is nil-safe, so unused
// training-only fields of a prediction bundle are fine.
func (b *buffers) release() {
	for _, m := range []*matrix.Matrix{
		b.weightedInput, b.activation,
		b.gradient, b.upstream, b.derivative, b.nextWeightsT, b.inputT,
		b.weightGradient, b.biasGradient, b.weightUpdate, b.biasUpdate,
	} {
		m.Release()
	}
}
