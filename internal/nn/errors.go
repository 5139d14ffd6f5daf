package nn

import (
	"errors"
	"fmt"
)

// Configuration errors returned by Model and Layer construction.
var (
	// ErrUnsupportedConfiguration is returned when an activation cannot be
	// used where it was placed: a hidden layer without an elementwise
	// derivative, or an output activation without a paired loss.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	// ErrWidthMismatch is returned when a layer's input size differs from the
	// previous layer's output size.
	ErrWidthMismatch = errors.New("layer width mismatch")

	// ErrChainFixed is returned when layers are added after training started.
	ErrChainFixed = errors.New("layer chain is fixed once training has started")

	// ErrLayerAttached is returned when a layer already belongs to a model.
	ErrLayerAttached = errors.New("layer already belongs to a model")

	// ErrEmptyModel is returned when training a model without layers.
	ErrEmptyModel = errors.New("model has no layers")

	// ErrInvalidBatchSize is returned for a batch size <= 0.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidLayerSize is returned for a layer width <= 0.
	ErrInvalidLayerSize = errors.New("layer sizes must be positive")

	// ErrAlreadyTraining is returned by InitTraining while a session is open.
	ErrAlreadyTraining = errors.New("training session already open")

	// ErrUnknownActivation is returned when parsing an activation name fails.
	ErrUnknownActivation = errors.New("unknown activation")

	// ErrStateDict is returned when a state dict does not fit the model.
	ErrStateDict = errors.New("state dict does not match model")
)

// StateError describes a Layer method called out of order, for example
// CalculateGradients before Forward. Like shape violations it is a
// programmer error and is raised with panic.
type StateError struct {
	Layer int    // index in the owning model, -1 when detached
	Op    string // method that was called
	State LayerState
	Msg   string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("nn: layer %d: %s: %s (state %s)", e.Layer, e.Op, e.Msg, e.State)
}

func (l *Layer) stateError(op, msg string) *StateError {
	return &StateError{Layer: l.index, Op: op, State: l.state, Msg: msg}
}
