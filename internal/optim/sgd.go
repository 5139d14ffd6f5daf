package optim

import "github.com/born-ml/mlp/internal/nn"

// DefaultLR is used when SGDConfig.LR is zero.
const DefaultLR = 0.01

// SGD implements Stochastic Gradient Descent without momentum.
//
// Update rule, per layer:
//
//	W = W - lr * dW
//	b = b - lr * db
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//
//	loss := model.Forward(x, y)
//	model.CalculateGradients(x, y)
//	optimizer.Step(model)
type SGD struct {
	lr    float32
	steps int
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR float32 // Learning rate (default: 0.01)
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = DefaultLR
	}
	return &SGD{lr: config.LR}
}

// Step performs a single optimization step on every layer of m.
func (s *SGD) Step(m *nn.Model) {
	m.Step(s.lr)
	s.steps++
}

// Steps returns the number of updates applied so far.
func (s *SGD) Steps() int {
	return s.steps
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}
