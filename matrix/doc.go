// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package matrix provides the dense float32 matrix kernel used by the mlp
// framework.
//
// # Overview
//
// Matrices are row-major and every operation writes into a caller supplied
// output, so training loops allocate their buffers once and reuse them:
//
//	a := matrix.Full(2, 3, 1)
//	b := matrix.New(3, 4)
//	out := matrix.New(2, 4)
//	matrix.Multiply(a, b, out)
//
// # Errors
//
// Shape mismatches, aliasing between an output and an input where it is not
// allowed, and use of a released matrix are programming errors. The
// operation panics with a *OpError that wraps one of the sentinel errors:
//
//	defer func() {
//	    if err, ok := recover().(error); ok && errors.Is(err, matrix.ErrShapeMismatch) {
//	        ...
//	    }
//	}()
//
// The Check functions report the same conditions as returned errors.
//
// # Parallelism
//
// Multiply spreads the rows of its output across goroutines once a matrix
// is large enough. Results are bit-identical to the sequential kernel.
// SetParallelism tunes or disables this:
//
//	matrix.SetParallelism(matrix.SequentialParallelism())
package matrix
