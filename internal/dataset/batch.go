package dataset

import (
	"fmt"

	"github.com/born-ml/mlp/internal/matrix"
)

// NumBatches returns how many full batches of size fit in samples. A
// trailing partial batch is dropped.
func NumBatches(samples, size int) int {
	if size <= 0 {
		return 0
	}
	return samples / size
}

// Batcher cuts column batches out of a feature matrix and its targets. The
// matrices returned by Batch are reused between calls.
type Batcher struct {
	features *matrix.Matrix
	targets  *matrix.Matrix
	size     int
	x, y     *matrix.Matrix
}

// NewBatcher creates a Batcher over features (F×N) and targets (C×N).
func NewBatcher(features, targets *matrix.Matrix, size int) (*Batcher, error) {
	if features.Cols() != targets.Cols() {
		return nil, fmt.Errorf("%w: %d feature columns, %d target columns", ErrMalformed, features.Cols(), targets.Cols())
	}
	if size <= 0 || size > features.Cols() {
		return nil, fmt.Errorf("%w: batch size %d for %d samples", ErrMalformed, size, features.Cols())
	}
	return &Batcher{
		features: features,
		targets:  targets,
		size:     size,
		x:        matrix.New(features.Rows(), size),
		y:        matrix.New(targets.Rows(), size),
	}, nil
}

// Len returns the number of full batches.
func (b *Batcher) Len() int {
	return NumBatches(b.features.Cols(), b.size)
}

// Size returns the batch size.
func (b *Batcher) Size() int {
	return b.size
}

// Batch returns samples [i*size, (i+1)*size) as x and y.
func (b *Batcher) Batch(i int) (x, y *matrix.Matrix) {
	start := i * b.size
	b.features.SliceCols(start, start+b.size, b.x)
	b.targets.SliceCols(start, start+b.size, b.y)
	return b.x, b.y
}
