package nn

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/born-ml/mlp/internal/matrix"
)

// ModelConfig configures a Model.
type ModelConfig struct {
	// Seed for weight initialization. Zero seeds from the clock.
	Seed int64
}

// Model is a sequential stack of fully connected layers trained by
// mini-batch gradient descent.
//
// Example:
//
//	m := nn.NewModel(nn.ModelConfig{Seed: 1})
//	m.AddLayer(hidden) // 784 -> 64, sigmoid
//	m.AddLayer(output) // 64 -> 10, softmax
//	if err := m.InitTraining(32); err != nil { ... }
//	defer m.EndTraining()
//
//	loss := m.Forward(x, y)
//	m.CalculateGradients(x, y)
//	m.Step(0.1)
//
// A Model is not safe for concurrent use.
type Model struct {
	layers    Chain
	rng       *rand.Rand
	loss      Loss
	fixed     bool
	training  bool
	batchSize int
}

// NewModel creates an empty model.
func NewModel(cfg ModelConfig) *Model {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Model{
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		rng: rand.New(rand.NewSource(seed)),
	}
}

// AddLayer appends l to the chain and initializes its weights.
//
// The layer's input size must equal the output size of the current last
// layer. Layers cannot be added once InitTraining has been called.
func (m *Model) AddLayer(l *Layer) error {
	if m.fixed {
		return ErrChainFixed
	}
	if l.index != noLayer {
		return ErrLayerAttached
	}

	n := len(m.layers)
	if n > 0 {
		last := m.layers[n-1]
		if last.outputSize != l.inputSize {
			return fmt.Errorf("%w: layer %d outputs %d, layer %d expects %d",
				ErrWidthMismatch, n-1, last.outputSize, n, l.inputSize)
		}
		l.prev = n - 1
	}
	l.index = n
	l.InitWeights(m.rng)
	m.layers = append(m.layers, l)
	return nil
}

// InitTraining fixes the chain, checks that every layer can be trained in
// its position, binds the output loss and allocates training buffers for
// batches of batchSize samples.
func (m *Model) InitTraining(batchSize int) error {
	switch {
	case m.training:
		return ErrAlreadyTraining
	case len(m.layers) == 0:
		return ErrEmptyModel
	case batchSize <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}

	loss, err := m.validate()
	if err != nil {
		return err
	}

	for i, l := range m.layers {
		if i+1 < len(m.layers) {
			l.next = i + 1
		}
	}
	m.fixed = true
	m.loss = loss
	m.last().loss = loss

	for _, l := range m.layers {
		l.AllocateBuffers(m.layers, batchSize, Training)
	}
	m.training = true
	m.batchSize = batchSize
	return nil
}

func (m *Model) validate() (Loss, error) {
	last := len(m.layers) - 1
	for i, l := range m.layers[:last] {
		if _, ok := l.act.(Differentiable); !ok {
			return nil, fmt.Errorf("%w: hidden layer %d uses %s, which has no elementwise derivative",
				ErrUnsupportedConfiguration, i, l.act.Type())
		}
	}
	return LossFor(m.layers[last].act.Type())
}

// EndTraining releases the training buffers and closes the session. The
// chain stays fixed; InitTraining may open a new session on it.
func (m *Model) EndTraining() {
	for _, l := range m.layers {
		l.FreeBuffers(Training)
		l.input = nil
		l.groundTruth = nil
	}
	m.training = false
	m.batchSize = 0
}

// Forward runs the training forward pass on data (inputSize × batchSize) and
// returns the loss against groundTruth (outputSize × batchSize).
func (m *Model) Forward(data, groundTruth *matrix.Matrix) float32 {
	m.first().SetInput(data)
	for _, l := range m.layers {
		l.Forward(m.layers)
	}
	return m.loss.Compute(m.last().train.activation, groundTruth)
}

// CalculateGradients backpropagates from the output layer to the first. It
// must follow a Forward on the same batch.
func (m *Model) CalculateGradients(input, groundTruth *matrix.Matrix) {
	m.first().SetInput(input)
	m.last().SetGroundTruth(groundTruth)
	for i := len(m.layers) - 1; i >= 0; i-- {
		m.layers[i].CalculateGradients(m.layers)
	}
}

// Step updates every layer with the gradients of the last
// CalculateGradients.
func (m *Model) Step(learningRate float32) {
	for _, l := range m.layers {
		l.Step(learningRate)
	}
}

// Predict writes the network output for data into out
// (outputSize × data.Cols()).
//
// Prediction uses its own buffers, sized for data, and releases them before
// returning, so it may be called at any point of a training session
// without affecting it.
func (m *Model) Predict(data, out *matrix.Matrix) {
	first := m.first()
	defer func() {
		for _, l := range m.layers {
			l.FreeBuffers(Prediction)
		}
		first.predInput = nil
	}()

	for _, l := range m.layers {
		l.AllocateBuffers(m.layers, data.Cols(), Prediction)
	}
	first.predInput = data
	for _, l := range m.layers {
		l.Predict(m.layers)
	}
	out.CopyFrom(m.last().pred.activation)
}

func (m *Model) first() *Layer {
	if len(m.layers) == 0 {
		panic(fmt.Errorf("nn: %w", ErrEmptyModel))
	}
	return m.layers[0]
}

func (m *Model) last() *Layer {
	if len(m.layers) == 0 {
		panic(fmt.Errorf("nn: %w", ErrEmptyModel))
	}
	return m.layers[len(m.layers)-1]
}

// Len returns the number of layers.
func (m *Model) Len() int { return len(m.layers) }

// Layer returns layer i.
func (m *Model) Layer(i int) *Layer { return m.layers[i] }

// Layers returns a copy of the layer slice.
func (m *Model) Layers() []*Layer {
	out := make([]*Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

// InputSize returns the input width of the first layer, or 0 when empty.
func (m *Model) InputSize() int {
	if len(m.layers) == 0 {
		return 0
	}
	return m.layers[0].inputSize
}

// OutputSize returns the output width of the last layer, or 0 when empty.
func (m *Model) OutputSize() int {
	if len(m.layers) == 0 {
		return 0
	}
	return m.last().outputSize
}

// BatchSize returns the batch size of the open training session, or 0.
func (m *Model) BatchSize() int { return m.batchSize }

// Training reports whether a training session is open.
func (m *Model) Training() bool { return m.training }

// Loss returns the loss bound by InitTraining, or nil before it.
func (m *Model) Loss() Loss { return m.loss }

// Summary describes every layer, one per line.
func (m *Model) Summary() string {
	var sb strings.Builder
	for i, l := range m.layers {
		fmt.Fprintf(&sb, "Layer: %d >> %s\n", i, l)
	}
	return sb.String()
}

// StateDict returns the live parameters keyed "<layer>.weight" and
// "<layer>.bias".
func (m *Model) StateDict() map[string]*matrix.Matrix {
	dict := make(map[string]*matrix.Matrix, 2*len(m.layers))
	for i, l := range m.layers {
		dict[fmt.Sprintf("%d.weight", i)] = l.weights
		dict[fmt.Sprintf("%d.bias", i)] = l.bias
	}
	return dict
}

// LoadStateDict copies parameters from dict into the model. Every key of
// StateDict must be present with the same shape and no other keys may
// appear; on error the model is left unchanged.
func (m *Model) LoadStateDict(dict map[string]*matrix.Matrix) error {
	own := m.StateDict()

	var extra []string
	for name := range dict {
		if _, ok := own[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("%w: unexpected parameters %v", ErrStateDict, extra)
	}

	for name, dst := range own {
		src, ok := dict[name]
		if !ok {
			return fmt.Errorf("%w: missing parameter %q", ErrStateDict, name)
		}
		if src.Shape() != dst.Shape() {
			return fmt.Errorf("%w: parameter %q has shape %s, want %s", ErrStateDict, name, src.Shape(), dst.Shape())
		}
	}

	for name, dst := range own {
		dst.CopyFrom(dict[name])
	}
	return nil
}
