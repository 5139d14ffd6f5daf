// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import "github.com/born-ml/mlp/internal/nn"

// ActivationType selects a layer's activation function.
type ActivationType = nn.ActivationType

// Supported activations.
const (
	Sigmoid = nn.Sigmoid
	ReLU    = nn.ReLU
	Softmax = nn.Softmax
)

// ParseActivation parses an activation name such as "relu".
func ParseActivation(name string) (ActivationType, error) { return nn.ParseActivation(name) }

// Activation is an activation function applied to a layer's weighted input.
type Activation = nn.Activation

// Differentiable is implemented by activations with an elementwise
// derivative. Only those may be used in hidden layers.
type Differentiable = nn.Differentiable

// ActivationFor returns the implementation of t.
func ActivationFor(t ActivationType) (Activation, error) { return nn.ActivationFor(t) }

// Loss is the training loss bound to the output layer.
type Loss = nn.Loss

// LossFor returns the loss paired with an output activation.
func LossFor(output ActivationType) (Loss, error) { return nn.LossFor(output) }

// Layers

// Layer is a fully connected layer.
type Layer = nn.Layer

// LayerState is a layer's position in its lifecycle.
type LayerState = nn.LayerState

// StateError is the panic value of a layer operation called out of order.
type StateError = nn.StateError

// NewLayer creates an inputSize → outputSize layer.
//
// Example:
//
//	hidden, err := nn.NewLayer(784, 100, nn.Sigmoid)
func NewLayer(inputSize, outputSize int, activation ActivationType) (*Layer, error) {
	return nn.NewLayer(inputSize, outputSize, activation)
}

// Model

// Model is a sequential stack of layers.
type Model = nn.Model

// ModelConfig configures a Model.
type ModelConfig = nn.ModelConfig

// NewModel creates an empty model.
//
// Example:
//
//	model := nn.NewModel(nn.ModelConfig{Seed: 42})
func NewModel(cfg ModelConfig) *Model { return nn.NewModel(cfg) }

// Errors returned by layers and models.
var (
	ErrUnsupportedConfiguration = nn.ErrUnsupportedConfiguration
	ErrWidthMismatch            = nn.ErrWidthMismatch
	ErrChainFixed               = nn.ErrChainFixed
	ErrLayerAttached            = nn.ErrLayerAttached
	ErrEmptyModel               = nn.ErrEmptyModel
	ErrInvalidBatchSize         = nn.ErrInvalidBatchSize
	ErrInvalidLayerSize         = nn.ErrInvalidLayerSize
	ErrAlreadyTraining          = nn.ErrAlreadyTraining
	ErrUnknownActivation        = nn.ErrUnknownActivation
	ErrStateDict                = nn.ErrStateDict
)
