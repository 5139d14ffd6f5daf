package optim_test

import (
	"testing"

	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSGD_SimpleUpdate checks W -= lr * dW on a one-layer model.
func TestSGD_SimpleUpdate(t *testing.T) {
	m := nn.NewModel(nn.ModelConfig{Seed: 1})
	l, err := nn.NewLayer(2, 2, nn.Softmax)
	require.NoError(t, err)
	require.NoError(t, m.AddLayer(l))
	require.NoError(t, m.InitTraining(1))
	defer m.EndTraining()

	x, _ := matrix.FromSlice(2, 1, []float32{1, -1})
	y, _ := matrix.FromSlice(2, 1, []float32{0, 1})
	m.Forward(x, y)
	m.CalculateGradients(x, y)

	w := l.Weights().Clone()
	b := l.Bias().Clone()
	dW := l.WeightGradient().Clone()
	db := l.BiasGradient().Clone()

	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	opt.Step(m)

	for i := range w.Data() {
		assert.InDelta(t, w.Data()[i]-0.1*dW.Data()[i], l.Weights().Data()[i], 1e-6)
	}
	for i := range b.Data() {
		assert.InDelta(t, b.Data()[i]-0.1*db.Data()[i], l.Bias().Data()[i], 1e-6)
	}
	assert.Equal(t, 1, opt.Steps())
}

func TestSGD_LR(t *testing.T) {
	opt := optim.NewSGD(optim.SGDConfig{})
	assert.Equal(t, float32(optim.DefaultLR), opt.GetLR())

	opt.SetLR(0.5)
	assert.Equal(t, float32(0.5), opt.GetLR())

	var _ optim.Optimizer = opt
}

func TestStepDecay(t *testing.T) {
	s := optim.StepDecay{Initial: 0.8, Factor: 0.5, Every: 2}
	tests := []struct {
		epoch int
		want  float32
	}{
		{0, 0.8},
		{1, 0.8},
		{2, 0.4},
		{3, 0.4},
		{4, 0.2},
		{7, 0.1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, s.LR(tt.epoch), 1e-6, "epoch %d", tt.epoch)
	}

	assert.Equal(t, float32(0.3), optim.StepDecay{Initial: 0.3}.LR(10), "no decay configured")
	assert.Equal(t, float32(0.2), optim.Constant(0.2).LR(99))
}
