package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/mlp/internal/matrix"
)

// ActivationType names the nonlinearity applied by a Layer.
type ActivationType int

// Supported activations.
const (
	Sigmoid ActivationType = iota
	ReLU
	Softmax
)

var activationNames = [...]string{
	Sigmoid: "sigmoid",
	ReLU:    "relu",
	Softmax: "softmax",
}

// String returns the lower-case activation name.
func (t ActivationType) String() string {
	if t < 0 || int(t) >= len(activationNames) {
		return fmt.Sprintf("ActivationType(%d)", int(t))
	}
	return activationNames[t]
}

// ParseActivation parses an activation name case-insensitively.
func ParseActivation(name string) (ActivationType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, n := range activationNames {
		if n == key {
			return ActivationType(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t ActivationType) MarshalText() ([]byte, error) {
	if _, ok := activations[t]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownActivation, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ActivationType) UnmarshalText(text []byte) error {
	parsed, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Activation is the forward half of a layer nonlinearity.
type Activation interface {
	Type() ActivationType
	Forward(weightedInput, out *matrix.Matrix)
}

// Differentiable is implemented by activations whose derivative is
// elementwise. Only those can be used in hidden layers; an output layer
// gets its gradient from the paired Loss instead.
type Differentiable interface {
	// Derivative writes dA/dZ given both the weighted input and the
	// activation computed from it.
	Derivative(weightedInput, activation, out *matrix.Matrix)
}

type sigmoidActivation struct{}

func (sigmoidActivation) Type() ActivationType { return Sigmoid }

func (sigmoidActivation) Forward(z, out *matrix.Matrix) { matrix.Sigmoid(z, out) }

func (sigmoidActivation) Derivative(_, a, out *matrix.Matrix) { matrix.SigmoidDerivative(a, out) }

type reluActivation struct{}

func (reluActivation) Type() ActivationType { return ReLU }

func (reluActivation) Forward(z, out *matrix.Matrix) { matrix.ReLU(z, out) }

func (reluActivation) Derivative(z, _, out *matrix.Matrix) { matrix.ReLUDerivative(z, out) }

// softmaxActivation normalizes each column. Its Jacobian is not diagonal, so
// it does not implement Differentiable.
type softmaxActivation struct{}

func (softmaxActivation) Type() ActivationType { return Softmax }

func (softmaxActivation) Forward(z, out *matrix.Matrix) { matrix.Softmax(z, out) }

var activations = map[ActivationType]Activation{
	Sigmoid: sigmoidActivation{},
	ReLU:    reluActivation{},
	Softmax: softmaxActivation{},
}

// ActivationFor returns the Activation implementing t.
func ActivationFor(t ActivationType) (Activation, error) {
	act, ok := activations[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivation, t)
	}
	return act, nil
}
