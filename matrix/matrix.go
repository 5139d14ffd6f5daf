// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package matrix

import (
	"math/rand"

	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/parallel"
)

// Matrix is a dense row-major float32 matrix.
type Matrix = matrix.Matrix

// Shape holds the dimensions of a Matrix.
type Shape = matrix.Shape

// OpError is the panic value of a kernel called with invalid operands.
type OpError = matrix.OpError

// ParallelConfig controls intra-op parallelism.
type ParallelConfig = parallel.Config

// Sentinel errors wrapped by OpError.
var (
	ErrInvalidShape    = matrix.ErrInvalidShape
	ErrShapeMismatch   = matrix.ErrShapeMismatch
	ErrAliased         = matrix.ErrAliased
	ErrIndexOutOfRange = matrix.ErrIndexOutOfRange
	ErrReleased        = matrix.ErrReleased
)

// Construction

// New returns a zero-filled rows×cols matrix.
func New(rows, cols int) *Matrix { return matrix.New(rows, cols) }

// Full returns a rows×cols matrix with every entry set to value.
func Full(rows, cols int, value float32) *Matrix { return matrix.Full(rows, cols, value) }

// FromSlice copies row-major data into a new rows×cols matrix.
func FromSlice(rows, cols int, data []float32) (*Matrix, error) {
	return matrix.FromSlice(rows, cols, data)
}

// Uniform returns a rows×cols matrix drawn uniformly from [lo, hi).
func Uniform(rows, cols int, lo, hi float32, rng *rand.Rand) *Matrix {
	return matrix.Uniform(rows, cols, lo, hi, rng)
}

// EqualApprox reports whether a and b have the same shape and all entries
// within tol of each other.
func EqualApprox(a, b *Matrix, tol float32) bool { return matrix.EqualApprox(a, b, tol) }

// Arithmetic

// Add computes out = a + b.
func Add(a, b, out *Matrix) { matrix.Add(a, b, out) }

// Subtract computes out = a - b.
func Subtract(a, b, out *Matrix) { matrix.Subtract(a, b, out) }

// Hadamard computes the elementwise product out = a ⊙ b.
func Hadamard(a, b, out *Matrix) { matrix.Hadamard(a, b, out) }

// ScalarMultiply computes out = s·in.
func ScalarMultiply(in *Matrix, s float32, out *Matrix) { matrix.ScalarMultiply(in, s, out) }

// Transpose writes inᵀ into out. out must not alias in.
func Transpose(in, out *Matrix) { matrix.Transpose(in, out) }

// Multiply computes the matrix product out = a × b. out must not alias
// a or b.
func Multiply(a, b, out *Matrix) { matrix.Multiply(a, b, out) }

// VectorAdd adds the column vector vec to every column of in.
func VectorAdd(in, vec, out *Matrix) { matrix.VectorAdd(in, vec, out) }

// RowMean writes the mean of each row of in into the column vector out.
func RowMean(in, out *Matrix) { matrix.RowMean(in, out) }

// Sum returns the sum of all entries.
func Sum(in *Matrix) float32 { return matrix.Sum(in) }

// Classification helpers

// ArgMax writes the row index of each column's maximum into the 1×N out.
// The first maximum wins ties.
func ArgMax(in, out *Matrix) { matrix.ArgMax(in, out) }

// OneHot encodes the 1×N class indices in as a numClasses×N matrix.
func OneHot(in, out *Matrix, numClasses int) { matrix.OneHot(in, out, numClasses) }

// Activations

// Sigmoid applies the logistic function elementwise.
func Sigmoid(in, out *Matrix) { matrix.Sigmoid(in, out) }

// ReLU applies max(0, x) elementwise.
func ReLU(in, out *Matrix) { matrix.ReLU(in, out) }

// Softmax normalizes each column into a probability distribution.
func Softmax(in, out *Matrix) { matrix.Softmax(in, out) }

// Parallelism

// SetParallelism replaces the kernel parallelism settings.
func SetParallelism(cfg ParallelConfig) { matrix.SetParallelism(cfg) }

// Parallelism returns the current kernel parallelism settings.
func Parallelism() ParallelConfig { return matrix.Parallelism() }

// DefaultParallelism returns settings based on the CPU count.
func DefaultParallelism() ParallelConfig { return parallel.DefaultConfig() }

// SequentialParallelism returns settings that never spawn goroutines.
func SequentialParallelism() ParallelConfig { return parallel.Sequential() }
