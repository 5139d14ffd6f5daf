package matrix

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

func sigmoid64(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func TestSigmoid(t *testing.T) {
	in := mustFromSlice(t, 1, 5, []float32{-2, -1, 0, 1, 2})
	out := New(1, 5)
	Sigmoid(in, out)

	for j, x := range in.Data() {
		assert.InDelta(t, sigmoid64(float64(x)), out.At(0, j), epsilon, "sigmoid(%v)", x)
	}

	requireOpPanic(t, ErrShapeMismatch, func() { Sigmoid(in, New(5, 1)) })
}

func TestReLU(t *testing.T) {
	in := mustFromSlice(t, 2, 2, []float32{-1, 0, 0.5, -0.0001})
	out := New(2, 2)
	ReLU(in, out)
	assert.Equal(t, []float32{0, 0, 0.5, 0}, out.Data())
}

func TestSoftmax_ColumnsSumToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, s := range []Shape{{1, 1}, {2, 3}, {10, 32}, {50, 4}} {
		in := Uniform(s.Rows, s.Cols, -10, 10, rng)
		out := New(s.Rows, s.Cols)
		Softmax(in, out)

		for j := 0; j < s.Cols; j++ {
			var sum float64
			for i := 0; i < s.Rows; i++ {
				v := out.At(i, j)
				assert.Greater(t, v, float32(0))
				sum += float64(v)
			}
			assert.InDelta(t, 1.0, sum, epsilon, "shape %s column %d", s, j)
		}
	}
}

func TestSoftmax_Values(t *testing.T) {
	// Two columns; the second is the first shifted by a constant.
	in := mustFromSlice(t, 3, 2, []float32{
		1, 101,
		2, 102,
		3, 103,
	})
	out := New(3, 2)
	Softmax(in, out)

	denom := math.Exp(1) + math.Exp(2) + math.Exp(3)
	for i := 0; i < 3; i++ {
		want := math.Exp(float64(i+1)) / denom
		assert.InDelta(t, want, out.At(i, 0), epsilon)
		assert.InDelta(t, want, out.At(i, 1), epsilon, "large logits must not overflow")
	}
}

func TestSoftmax_InPlace(t *testing.T) {
	m := mustFromSlice(t, 2, 1, []float32{0, 0})
	Softmax(m, m)
	assert.Equal(t, []float32{0.5, 0.5}, m.Data())
}

func TestSigmoidDerivative_MatchesSigmoid(t *testing.T) {
	const n = 201
	xs := make([]float32, n)
	for i := range xs {
		xs[i] = -10 + 20*float32(i)/float32(n-1)
	}
	in := mustFromSlice(t, 1, n, xs)
	act := New(1, n)
	Sigmoid(in, act)

	deriv := New(1, n)
	SigmoidDerivative(act, deriv)

	for j := range xs {
		s := act.At(0, j)
		assert.Equal(t, s*(1-s), deriv.At(0, j))

		// And it is the true derivative of sigmoid.
		s64 := sigmoid64(float64(xs[j]))
		assert.InDelta(t, s64*(1-s64), deriv.At(0, j), epsilon)
	}
}

func TestReLUDerivative(t *testing.T) {
	z := mustFromSlice(t, 1, 4, []float32{-2, 0, 1e-6, 3})
	out := New(1, 4)
	ReLUDerivative(z, out)
	assert.Equal(t, []float32{0, 1, 1, 1}, out.Data())
}

func TestLosses(t *testing.T) {
	pred := mustFromSlice(t, 2, 2, []float32{
		0.8, 0.4,
		0.2, 0.6,
	})
	gt := mustFromSlice(t, 2, 2, []float32{
		1, 0,
		0, 1,
	})

	t.Run("categorical cross-entropy", func(t *testing.T) {
		want := -(math.Log(0.8) + math.Log(0.6)) / 2
		assert.InDelta(t, want, CategoricalCrossEntropy(pred, gt), epsilon)
	})

	t.Run("mse", func(t *testing.T) {
		want := ((0.2*0.2 + 0.2*0.2) + (0.4*0.4 + 0.4*0.4)) / 2
		assert.InDelta(t, want, MSE(pred, gt), epsilon)
	})

	t.Run("log-loss", func(t *testing.T) {
		col0 := math.Log(0.8) + math.Log(1-0.2)
		col1 := math.Log(1-0.4) + math.Log(0.6)
		want := -(col0 + col1) / 2
		assert.InDelta(t, want, LogLoss(pred, gt), epsilon)
	})

	requireOpPanic(t, ErrShapeMismatch, func() { MSE(pred, New(2, 3)) })
}

func TestLogLoss_SaturatedPredictions(t *testing.T) {
	// Sigmoid of a large logit rounds to exactly 1 in float32.
	pred := mustFromSlice(t, 2, 1, []float32{1, 0})
	gt := mustFromSlice(t, 2, 1, []float32{1, 0})

	loss := LogLoss(pred, gt)
	assert.False(t, math.IsNaN(float64(loss)))
	assert.Equal(t, float32(0), loss)

	logits := mustFromSlice(t, 1, 1, []float32{40})
	act := New(1, 1)
	Sigmoid(logits, act)
	require.Equal(t, float32(1), act.At(0, 0))
	assert.False(t, math.IsNaN(float64(LogLoss(act, mustFromSlice(t, 1, 1, []float32{1})))))
}

func TestCombinedDerivatives(t *testing.T) {
	act := mustFromSlice(t, 2, 1, []float32{0.7, 0.3})
	gt := mustFromSlice(t, 2, 1, []float32{1, 0})
	out := New(2, 1)

	SoftmaxCCECombinedDerivative(act, gt, out)
	assert.InDeltaSlice(t, []float32{-0.3, 0.3}, out.Data(), epsilon)

	SigmoidLogLossCombinedDerivative(act, gt, out)
	assert.InDeltaSlice(t, []float32{-0.3, 0.3}, out.Data(), epsilon)

	MSEDerivative(act, gt, out)
	assert.InDeltaSlice(t, []float32{-0.6, 0.6}, out.Data(), epsilon)

	z := mustFromSlice(t, 2, 1, []float32{0.7, -0.3})
	MSEReLUCombinedDerivative(z, act, gt, out)
	assert.InDeltaSlice(t, []float32{-0.6, 0}, out.Data(), epsilon)
}

func TestMSEReLUCombinedDerivative_FiniteDifference(t *testing.T) {
	const rows, cols = 3, 2

	// Keep logits away from the ReLU kink so the central difference is exact.
	z := mustFromSlice(t, rows, cols, []float32{0.5, -0.7, 1.2, 0.3, -1.1, 0.9})
	gt := mustFromSlice(t, rows, cols, []float32{1, 0, 0.5, 0, 0, 2})

	act := New(rows, cols)
	ReLU(z, act)
	analytic := New(rows, cols)
	MSEReLUCombinedDerivative(z, act, gt, analytic)

	numeric := fd.Gradient(nil,
		lossOfLogits(rows, cols, gt, ReLU, MSE),
		toFloat64(z),
		&fd.Settings{Formula: fd.Central, Step: 1e-3},
	)

	for i, g := range analytic.Data() {
		assert.InDelta(t, numeric[i], float64(g)/cols, 1e-3, "logit %d", i)
	}
}

// lossOfLogits evaluates a loss on activate(logits) with the float32 kernel.
func lossOfLogits(
	rows, cols int,
	gt *Matrix,
	activate func(in, out *Matrix),
	loss func(pred, gt *Matrix) float32,
) func([]float64) float64 {
	return func(x []float64) float64 {
		z := New(rows, cols)
		for i, v := range x {
			z.Data()[i] = float32(v)
		}
		a := New(rows, cols)
		activate(z, a)
		return float64(loss(a, gt))
	}
}

func TestSoftmaxCCECombinedDerivative_FiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	const rows, cols = 4, 3

	z := Uniform(rows, cols, -2, 2, rng)
	labels := mustFromSlice(t, 1, cols, []float32{2, 0, 3})
	gt := New(rows, cols)
	OneHot(labels, gt, rows)

	act := New(rows, cols)
	Softmax(z, act)
	analytic := New(rows, cols)
	SoftmaxCCECombinedDerivative(act, gt, analytic)

	numeric := fd.Gradient(nil,
		lossOfLogits(rows, cols, gt, Softmax, CategoricalCrossEntropy),
		toFloat64(z),
		&fd.Settings{Formula: fd.Central, Step: 1e-3},
	)

	// The loss is a mean over columns; the fused derivative is per sample.
	require.Len(t, numeric, rows*cols)
	for i, g := range analytic.Data() {
		assert.InDelta(t, numeric[i], float64(g)/cols, 1e-3, "logit %d", i)
	}
}

func TestSigmoidLogLossCombinedDerivative_FiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	const rows, cols = 3, 2

	z := Uniform(rows, cols, -2, 2, rng)
	gt := mustFromSlice(t, rows, cols, []float32{1, 0, 0, 1, 1, 1})

	act := New(rows, cols)
	Sigmoid(z, act)
	analytic := New(rows, cols)
	SigmoidLogLossCombinedDerivative(act, gt, analytic)

	numeric := fd.Gradient(nil,
		lossOfLogits(rows, cols, gt, Sigmoid, LogLoss),
		toFloat64(z),
		&fd.Settings{Formula: fd.Central, Step: 1e-3},
	)

	for i, g := range analytic.Data() {
		assert.InDelta(t, numeric[i], float64(g)/cols, 1e-3, "logit %d", i)
	}
}
