package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/mlp/internal/matrix"
)

// noLayer marks a missing neighbour at either end of the chain.
const noLayer = -1

// Chain is the ordered layer slice of a Model. Layers refer to their
// neighbours by index into it.
type Chain []*Layer

func (c Chain) at(i int) *Layer {
	if i == noLayer {
		return nil
	}
	return c[i]
}

// LayerState tracks where a layer is in its training cycle.
type LayerState int

// Layer states, in the order a training cycle visits them.
const (
	StateConstructed LayerState = iota
	StateWeightsInitialized
	StateBuffersAllocated
	StateForwarded
	StateGradientsComputed
	StateStepped
	StateBuffersFreed
)

func (s LayerState) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateWeightsInitialized:
		return "weights-initialized"
	case StateBuffersAllocated:
		return "buffers-allocated"
	case StateForwarded:
		return "forwarded"
	case StateGradientsComputed:
		return "gradients-computed"
	case StateStepped:
		return "stepped"
	case StateBuffersFreed:
		return "buffers-freed"
	default:
		return fmt.Sprintf("LayerState(%d)", int(s))
	}
}

// Layer is a fully connected layer: a = act(W·x + b).
//
// Samples are columns: x is inputSize×batch and a is outputSize×batch.
// The layer owns its weights and bias; the matrices it reads from its
// neighbours are looked up through the Chain passed to each call.
//
// Training cycle (driven by Model):
//
//	l.Forward(chain)            // front to back
//	l.CalculateGradients(chain) // back to front
//	l.Step(lr)                  // any order
//
// Calling these out of order panics with a *StateError.
type Layer struct {
	inputSize  int
	outputSize int
	act        Activation
	loss       Loss // bound by Model.InitTraining on the output layer

	index, prev, next int

	weights *matrix.Matrix // outputSize × inputSize
	bias    *matrix.Matrix // outputSize × 1

	input       *matrix.Matrix // training input of the first layer
	predInput   *matrix.Matrix // prediction input of the first layer
	groundTruth *matrix.Matrix

	train *buffers
	pred  *buffers
	state LayerState
}

// NewLayer creates a detached layer with zero weights.
func NewLayer(inputSize, outputSize int, activation ActivationType) (*Layer, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidLayerSize, inputSize, outputSize)
	}
	act, err := ActivationFor(activation)
	if err != nil {
		return nil, err
	}
	return &Layer{
		inputSize:  inputSize,
		outputSize: outputSize,
		act:        act,
		index:      noLayer,
		prev:       noLayer,
		next:       noLayer,
		weights:    matrix.New(outputSize, inputSize),
		bias:       matrix.New(outputSize, 1),
	}, nil
}

// InitWeights draws every weight from uniform(-1, 1) and one uniform(-1, 1)
// value per output row for the bias.
func (l *Layer) InitWeights(rng *rand.Rand) {
	if l.state == StateForwarded || l.state == StateGradientsComputed {
		panic(l.stateError("init weights", "cannot reinitialize in the middle of a batch"))
	}

	l.weights.CopyFrom(matrix.Uniform(l.outputSize, l.inputSize, -1, 1, rng))
	for i := 0; i < l.outputSize; i++ {
		v := -1 + 2*rng.Float32()
		for j := 0; j < l.bias.Cols(); j++ {
			l.bias.Set(i, j, v)
		}
	}

	if l.state == StateConstructed {
		l.state = StateWeightsInitialized
	}
}

// SetInput attaches the training batch read by the first layer.
func (l *Layer) SetInput(m *matrix.Matrix) {
	if l.prev != noLayer {
		panic(l.stateError("set input", "only the first layer takes external input"))
	}
	l.input = m
}

// SetGroundTruth attaches the targets used by the last layer's loss.
func (l *Layer) SetGroundTruth(m *matrix.Matrix) {
	if l.next != noLayer {
		panic(l.stateError("set ground truth", "only the last layer takes ground truth"))
	}
	l.groundTruth = m
}

// AllocateBuffers acquires the bundle for phase, sized for batchSize
// columns. The chain is needed to size the upstream gradient storage of
// hidden layers.
func (l *Layer) AllocateBuffers(c Chain, batchSize int, phase Phase) {
	const op = "allocate buffers"
	if batchSize <= 0 {
		panic(l.stateError(op, fmt.Sprintf("batch size %d", batchSize)))
	}

	if phase == Prediction {
		if l.pred != nil {
			panic(l.stateError(op, "prediction buffers already allocated"))
		}
		l.pred = newBuffers(Prediction, l.inputSize, l.outputSize, 0, batchSize)
		return
	}

	switch {
	case l.train != nil:
		panic(l.stateError(op, "training buffers already allocated"))
	case l.state == StateConstructed:
		panic(l.stateError(op, "weights not initialized"))
	}

	nextOutput := 0
	if next := c.at(l.next); next != nil {
		nextOutput = next.outputSize
	}
	l.train = newBuffers(Training, l.inputSize, l.outputSize, nextOutput, batchSize)
	l.state = StateBuffersAllocated
}

// FreeBuffers releases the bundle for phase. Freeing an absent bundle is a
// no-op.
func (l *Layer) FreeBuffers(phase Phase) {
	if phase == Prediction {
		if l.pred != nil {
			l.pred.release()
			l.pred = nil
		}
		return
	}
	if l.train != nil {
		l.train.release()
		l.train = nil
		l.state = StateBuffersFreed
	}
}

// inputFrom returns the matrix this layer multiplies by its weights: the
// previous layer's activation or the attached external input.
func (l *Layer) inputFrom(c Chain, op string, phase Phase) *matrix.Matrix {
	prev := c.at(l.prev)
	if prev == nil {
		in := l.input
		if phase == Prediction {
			in = l.predInput
		}
		if in == nil {
			panic(l.stateError(op, "no input attached to the first layer"))
		}
		return in
	}

	if phase == Prediction {
		if prev.pred == nil {
			panic(l.stateError(op, fmt.Sprintf("layer %d has no prediction buffers", l.prev)))
		}
		return prev.pred.activation
	}
	if prev.state != StateForwarded {
		panic(l.stateError(op, fmt.Sprintf("layer %d is %s, want %s", l.prev, prev.state, StateForwarded)))
	}
	return prev.train.activation
}

func (l *Layer) affine(in *matrix.Matrix, b *buffers) {
	matrix.Multiply(l.weights, in, b.weightedInput)
	matrix.VectorAdd(b.weightedInput, l.bias, b.weightedInput)
	l.act.Forward(b.weightedInput, b.activation)
}

// Forward computes the training activation of this layer.
func (l *Layer) Forward(c Chain) {
	const op = "forward"
	if l.train == nil {
		panic(l.stateError(op, "training buffers not allocated"))
	}
	l.affine(l.inputFrom(c, op, Training), l.train)
	l.state = StateForwarded
}

// Predict computes the prediction activation of this layer. It only touches
// the prediction bundle and leaves the training state alone.
func (l *Layer) Predict(c Chain) {
	const op = "predict"
	if l.pred == nil {
		panic(l.stateError(op, "prediction buffers not allocated"))
	}
	l.affine(l.inputFrom(c, op, Prediction), l.pred)
}

// CalculateGradients computes dL/dZ for this layer and from it the weight
// and bias gradients.
//
// The output layer takes dL/dZ from its loss. A hidden layer pulls the
// gradient of the next layer back through that layer's weights:
//
//	dL/dZ = act'(z) ⊙ (W_nextᵀ × dL/dZ_next)
//
// In both cases:
//
//	dL/db = mean over columns of dL/dZ
//	dL/dW = (dL/dZ × xᵀ) / batchSize
func (l *Layer) CalculateGradients(c Chain) {
	const op = "calculate gradients"
	if l.state != StateForwarded {
		panic(l.stateError(op, "layer has not been forwarded"))
	}
	b := l.train

	if next := c.at(l.next); next == nil {
		switch {
		case l.groundTruth == nil:
			panic(l.stateError(op, "no ground truth attached to the output layer"))
		case l.loss == nil:
			panic(l.stateError(op, "no loss bound to the output layer"))
		}
		l.loss.OutputGradient(b.weightedInput, b.activation, l.groundTruth, b.gradient)
	} else {
		if next.state != StateGradientsComputed {
			panic(l.stateError(op, fmt.Sprintf("layer %d is %s, want %s", l.next, next.state, StateGradientsComputed)))
		}
		d, ok := l.act.(Differentiable)
		if !ok {
			panic(l.stateError(op, fmt.Sprintf("%s has no elementwise derivative", l.act.Type())))
		}
		matrix.Transpose(next.weights, b.nextWeightsT)
		matrix.Multiply(b.nextWeightsT, next.train.gradient, b.upstream)
		d.Derivative(b.weightedInput, b.activation, b.derivative)
		matrix.Hadamard(b.derivative, b.upstream, b.gradient)
	}

	matrix.RowMean(b.gradient, b.biasGradient)

	matrix.Transpose(l.inputFrom(c, op, Training), b.inputT)
	matrix.Multiply(b.gradient, b.inputT, b.weightGradient)
	matrix.ScalarMultiply(b.weightGradient, 1/float32(b.batchSize), b.weightGradient)

	l.state = StateGradientsComputed
}

// Step applies one gradient descent update: W -= lr·dW, b -= lr·db.
func (l *Layer) Step(learningRate float32) {
	if l.state != StateGradientsComputed {
		panic(l.stateError("step", "gradients have not been computed"))
	}
	b := l.train
	matrix.ScalarMultiply(b.weightGradient, learningRate, b.weightUpdate)
	matrix.Subtract(l.weights, b.weightUpdate, l.weights)
	matrix.ScalarMultiply(b.biasGradient, learningRate, b.biasUpdate)
	matrix.Subtract(l.bias, b.biasUpdate, l.bias)
	l.state = StateStepped
}

// InputSize returns the number of inputs per sample.
func (l *Layer) InputSize() int { return l.inputSize }

// OutputSize returns the number of outputs per sample.
func (l *Layer) OutputSize() int { return l.outputSize }

// Activation returns the layer's activation type.
func (l *Layer) Activation() ActivationType { return l.act.Type() }

// Weights returns the live weight matrix.
func (l *Layer) Weights() *matrix.Matrix { return l.weights }

// Bias returns the live bias vector.
func (l *Layer) Bias() *matrix.Matrix { return l.bias }

// WeightGradient returns dL/dW from the last CalculateGradients, or nil
// without training buffers.
func (l *Layer) WeightGradient() *matrix.Matrix {
	if l.train == nil {
		return nil
	}
	return l.train.weightGradient
}

// BiasGradient returns dL/db, or nil without training buffers.
func (l *Layer) BiasGradient() *matrix.Matrix {
	if l.train == nil {
		return nil
	}
	return l.train.biasGradient
}

// Output returns the training activation, or nil without training buffers.
func (l *Layer) Output() *matrix.Matrix {
	if l.train == nil {
		return nil
	}
	return l.train.activation
}

// State returns the training-cycle state.
func (l *Layer) State() LayerState { return l.state }

func (l *Layer) String() string {
	return fmt.Sprintf("Input Size: %d Output Size: %d Activation: %s", l.inputSize, l.outputSize, l.act.Type())
}
