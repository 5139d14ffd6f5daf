// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides fully connected layers and the sequential model that
// trains them.
//
// # Overview
//
// This package contains:
//   - Layer: a dense layer computing activation(W·x + b)
//   - Model: a chain of layers trained by mini-batch gradient descent
//   - Activations: Sigmoid, ReLU, Softmax
//   - Losses chosen from the output activation: mean squared error for
//     ReLU, log loss for Sigmoid and categorical cross-entropy for Softmax
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/mlp/matrix"
//	    "github.com/born-ml/mlp/nn"
//	)
//
//	func main() {
//	    model := nn.NewModel(nn.ModelConfig{Seed: 42})
//
//	    hidden, _ := nn.NewLayer(784, 64, nn.Sigmoid)
//	    output, _ := nn.NewLayer(64, 10, nn.Softmax)
//	    model.AddLayer(hidden)
//	    model.AddLayer(output)
//
//	    if err := model.InitTraining(32); err != nil {
//	        log.Fatal(err)
//	    }
//	    defer model.EndTraining()
//
//	    // x is 784×32, y is 10×32 one-hot.
//	    loss := model.Forward(x, y)
//	    model.CalculateGradients(x, y)
//	    model.Step(0.1)
//	}
//
// # Data Layout
//
// Samples are columns: a batch of N inputs with F features is an F×N
// matrix and targets are C×N one-hot matrices.
//
// # Layer Lifecycle
//
// Each layer moves through a fixed sequence of states: constructed,
// weights initialized, buffers allocated, then forwarded, gradients
// computed and stepped once per batch. Calling an operation out of order
// panics with a *StateError.
//
// # Prediction
//
// Predict allocates its own buffers sized for the input and releases them
// before returning, so it can be called in the middle of a training session
// without disturbing it.
//
// # Checkpoints
//
// StateDict exposes the parameters as "<layer>.weight" and "<layer>.bias";
// LoadStateDict restores them after checking every name and shape.
package nn
