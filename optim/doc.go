// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the optimizer and learning rate schedules used to
// train nn models.
//
// # Overview
//
// This package contains:
//   - SGD: plain stochastic gradient descent, W ← W − lr·∂L/∂W
//   - Schedules: Constant and StepDecay
//
// # Basic Usage
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//	schedule := optim.StepDecay{Initial: 0.1, Factor: 0.5, Every: 10}
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    opt.SetLR(schedule.LR(epoch))
//	    for _, batch := range batches {
//	        model.Forward(batch.X, batch.Y)
//	        model.CalculateGradients(batch.X, batch.Y)
//	        opt.Step(model)
//	    }
//	}
package optim
