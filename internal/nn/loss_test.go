package nn

import (
	"testing"

	"github.com/born-ml/mlp/internal/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLossFor(t *testing.T) {
	tests := []struct {
		output ActivationType
		name   string
	}{
		{ReLU, "mse"},
		{Sigmoid, "log_loss"},
		{Softmax, "categorical_cross_entropy"},
	}
	for _, tt := range tests {
		loss, err := LossFor(tt.output)
		require.NoError(t, err)
		assert.Equal(t, tt.name, loss.Name())
	}

	_, err := LossFor(ActivationType(7))
	assert.ErrorIs(t, err, ErrUnsupportedConfiguration)
}

func TestLoss_Compute(t *testing.T) {
	pred, err := matrix.FromSlice(2, 1, []float32{0.75, 0.25})
	require.NoError(t, err)
	gt, err := matrix.FromSlice(2, 1, []float32{1, 0})
	require.NoError(t, err)

	mse, _ := LossFor(ReLU)
	assert.InDelta(t, 0.125, mse.Compute(pred, gt), 1e-6)

	cce, _ := LossFor(Softmax)
	assert.Equal(t, matrix.CategoricalCrossEntropy(pred, gt), cce.Compute(pred, gt))
}

func TestLoss_OutputGradient(t *testing.T) {
	z, _ := matrix.FromSlice(3, 1, []float32{1, -1, 0.5})
	a, _ := matrix.FromSlice(3, 1, []float32{0.6, 0.1, 0.3})
	gt, _ := matrix.FromSlice(3, 1, []float32{1, 0, 0})
	out := matrix.New(3, 1)

	tests := []struct {
		output ActivationType
		want   []float32
	}{
		{Softmax, []float32{-0.4, 0.1, 0.3}},
		{Sigmoid, []float32{-0.4, 0.1, 0.3}},
		// relu'(z) masks the second row.
		{ReLU, []float32{-0.8, 0, 0.6}},
	}
	for _, tt := range tests {
		loss, err := LossFor(tt.output)
		require.NoError(t, err)
		loss.OutputGradient(z, a, gt, out)
		assert.InDeltaSlice(t, tt.want, out.Data(), 1e-6, tt.output.String())
	}
}
