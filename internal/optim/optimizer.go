// Package optim implements the update rules and learning rate schedules used
// to train nn.Model.
//
// This package provides:
//   - Optimizer interface: applies one update to a model
//   - SGD: plain stochastic gradient descent
//   - Schedule / StepDecay: learning rate as a function of the epoch
//
// Example usage:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//	decay := optim.StepDecay{Initial: 0.1, Factor: 0.5, Every: 5}
//
//	for epoch := range epochs {
//	    opt.SetLR(decay.LR(epoch))
//	    for _, b := range batches {
//	        model.Forward(b.X, b.Y)
//	        model.CalculateGradients(b.X, b.Y)
//	        opt.Step(model)
//	    }
//	}
package optim

import "github.com/born-ml/mlp/internal/nn"

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies the gradients of the last CalculateGradients call to
	// every layer of m.
	Step(m *nn.Model)

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Schedule maps a zero-based epoch to a learning rate.
type Schedule interface {
	LR(epoch int) float32
}
