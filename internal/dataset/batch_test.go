package dataset

import (
	"testing"

	"github.com/born-ml/mlp/internal/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumBatches(t *testing.T) {
	assert.Equal(t, 3, NumBatches(10, 3))
	assert.Equal(t, 1, NumBatches(4, 4))
	assert.Equal(t, 0, NumBatches(3, 4))
	assert.Equal(t, 0, NumBatches(3, 0))
}

func TestBatcher(t *testing.T) {
	features, _ := matrix.FromSlice(2, 5, []float32{
		0, 1, 2, 3, 4,
		10, 11, 12, 13, 14,
	})
	targets, _ := matrix.FromSlice(1, 5, []float32{5, 6, 7, 8, 9})

	b, err := NewBatcher(features, targets, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len(), "the trailing sample is dropped")
	assert.Equal(t, 2, b.Size())

	x, y := b.Batch(1)
	assert.Equal(t, []float32{2, 3, 12, 13}, x.Data())
	assert.Equal(t, []float32{7, 8}, y.Data())

	x0, _ := b.Batch(0)
	assert.Same(t, x, x0, "batch buffers are reused")
	assert.Equal(t, []float32{0, 1, 10, 11}, x0.Data())
}

func TestNewBatcher_Errors(t *testing.T) {
	_, err := NewBatcher(matrix.New(2, 4), matrix.New(1, 3), 2)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewBatcher(matrix.New(2, 4), matrix.New(1, 4), 0)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewBatcher(matrix.New(2, 4), matrix.New(1, 4), 5)
	assert.ErrorIs(t, err, ErrMalformed)
}
