// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import "github.com/born-ml/mlp/internal/optim"

// Optimizer updates a model from its computed gradients.
type Optimizer = optim.Optimizer

// Schedule maps an epoch to a learning rate.
type Schedule = optim.Schedule

// SGD (Stochastic Gradient Descent)

// SGD represents the plain SGD optimizer.
type SGD = optim.SGD

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// DefaultLR is used when SGDConfig.LR is zero.
const DefaultLR = optim.DefaultLR

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//	optimizer.Step(model)
func NewSGD(config SGDConfig) *SGD { return optim.NewSGD(config) }

// Schedules

// Constant keeps the learning rate fixed.
type Constant = optim.Constant

// StepDecay multiplies the learning rate by Factor every Every epochs.
type StepDecay = optim.StepDecay
