package trainer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/born-ml/mlp/internal/dataset"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(64, 20*time.Millisecond, 10*time.Millisecond, 1.2)
	w.Record(64, 10*time.Millisecond, 20*time.Millisecond, 0.8)
	snap := w.Snapshot()

	assert.InDelta(t, 2133.3333, snap.SamplesPerSec, 1)
	assert.InDelta(t, 15, snap.AvgDataMS, 1e-9)
	assert.InDelta(t, 1.0, snap.MeanLoss, 1e-9)
	assert.Equal(t, 0.8, snap.LastLoss)
	assert.Equal(t, Window{}, w, "window was not reset")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "epoch 0", 4)
	p.Update(1, 0.5)
	want := "\repoch 0 [" + strings.Repeat("=", 10) + ">" + strings.Repeat(" ", 29) + "]  25% loss=0.5000"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	p.Update(4, 0.25)
	p.Finish()
	assert.Equal(t, "\repoch 0 ["+strings.Repeat("=", progressWidth)+"] 100% loss=0.2500\n", buf.String())

	// A nil writer is silent.
	NewProgress(nil, "x", 3).Update(1, 0)
}

// blobs returns two well separated clusters in the unit square.
func blobs(n int, seed int64) (features, labels *matrix.Matrix) {
	rng := rand.New(rand.NewSource(seed))
	features = matrix.New(2, n)
	labels = matrix.New(1, n)
	for j := 0; j < n; j++ {
		class := j % 2
		center := float32(0.2 + 0.6*float64(class))
		features.Set(0, j, center+0.1*(rng.Float32()-0.5))
		features.Set(1, j, center+0.1*(rng.Float32()-0.5))
		labels.Set(0, j, float32(class))
	}
	return features, labels
}

func newBlobModel(t *testing.T) *nn.Model {
	t.Helper()
	m := nn.NewModel(nn.ModelConfig{Seed: 3})
	hidden, err := nn.NewLayer(2, 8, nn.Sigmoid)
	require.NoError(t, err)
	out, err := nn.NewLayer(8, 2, nn.Softmax)
	require.NoError(t, err)
	require.NoError(t, m.AddLayer(hidden))
	require.NoError(t, m.AddLayer(out))
	return m
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRun_LearnsBlobs(t *testing.T) {
	features, labels := blobs(64, 1)
	targets, err := dataset.OneHotLabels(labels, 2)
	require.NoError(t, err)
	testFeatures, testLabels := blobs(40, 2)

	m := newBlobModel(t)
	var logs bytes.Buffer
	results, err := Run(context.Background(), m, RunConfig{
		Features:     features,
		Targets:      targets,
		TestFeatures: testFeatures,
		TestLabels:   testLabels,
		Epochs:       100,
		BatchSize:    8,
		LearningRate: optim.Constant(0.5),
		LogEvery:     4,
		Logger:       log.New(&logs, "", 0),
	})
	require.NoError(t, err)
	require.Len(t, results, 100)

	assert.Less(t, results[99].MeanLoss, results[0].MeanLoss)
	assert.GreaterOrEqual(t, results[99].Accuracy, 0.95)
	assert.False(t, m.Training(), "Run closes the training session")
	assert.Contains(t, logs.String(), "epoch=0 batch=4/8")
	assert.Contains(t, logs.String(), "epoch=99 lr=0.5000")
}

func TestRun_Schedule(t *testing.T) {
	features, labels := blobs(16, 1)
	targets, _ := dataset.OneHotLabels(labels, 2)

	results, err := Run(context.Background(), newBlobModel(t), RunConfig{
		Features:     features,
		Targets:      targets,
		Epochs:       3,
		BatchSize:    4,
		LearningRate: optim.StepDecay{Initial: 0.4, Factor: 0.5, Every: 1},
		Logger:       quietLogger(),
	})
	require.NoError(t, err)

	lrs := make([]float32, len(results))
	for i, r := range results {
		lrs[i] = r.LR
		assert.Equal(t, -1.0, r.Accuracy)
	}
	assert.InDeltaSlice(t, []float32{0.4, 0.2, 0.1}, lrs, 1e-6)
}

func TestRun_Cancelled(t *testing.T) {
	features, labels := blobs(16, 1)
	targets, _ := dataset.OneHotLabels(labels, 2)
	m := newBlobModel(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, m, RunConfig{
		Features:     features,
		Targets:      targets,
		Epochs:       1,
		BatchSize:    4,
		LearningRate: optim.Constant(0.1),
		Logger:       quietLogger(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, m.Training())
}

func TestRun_OnEpochStops(t *testing.T) {
	features, labels := blobs(16, 1)
	targets, _ := dataset.OneHotLabels(labels, 2)
	stop := errors.New("stop")

	results, err := Run(context.Background(), newBlobModel(t), RunConfig{
		Features:     features,
		Targets:      targets,
		Epochs:       5,
		BatchSize:    4,
		LearningRate: optim.Constant(0.1),
		Logger:       quietLogger(),
		OnEpoch: func(r EpochResult) error {
			if r.Epoch == 1 {
				return stop
			}
			return nil
		},
	})
	assert.ErrorIs(t, err, stop)
	assert.Len(t, results, 2)
}

func TestRun_InvalidConfig(t *testing.T) {
	features, labels := blobs(8, 1)
	targets, _ := dataset.OneHotLabels(labels, 2)
	base := RunConfig{
		Features:     features,
		Targets:      targets,
		Epochs:       1,
		BatchSize:    4,
		LearningRate: optim.Constant(0.1),
		Logger:       quietLogger(),
	}

	tests := []struct {
		name   string
		modify func(*RunConfig)
	}{
		{"no features", func(c *RunConfig) { c.Features = nil }},
		{"no epochs", func(c *RunConfig) { c.Epochs = 0 }},
		{"no batch size", func(c *RunConfig) { c.BatchSize = 0 }},
		{"batch larger than data", func(c *RunConfig) { c.BatchSize = 9 }},
		{"no schedule", func(c *RunConfig) { c.LearningRate = nil }},
		{"labels without features", func(c *RunConfig) { c.TestLabels = labels }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			_, err := Run(context.Background(), newBlobModel(t), cfg)
			assert.Error(t, err)
		})
	}

	// A model that cannot be trained is reported, not panicked on.
	m := nn.NewModel(nn.ModelConfig{Seed: 1})
	_, err := Run(context.Background(), m, base)
	assert.ErrorIs(t, err, nn.ErrEmptyModel)
}

func TestAccuracy(t *testing.T) {
	m := nn.NewModel(nn.ModelConfig{Seed: 1})
	l, err := nn.NewLayer(2, 2, nn.Softmax)
	require.NoError(t, err)
	require.NoError(t, m.AddLayer(l))

	// Identity weights, zero bias: the larger feature wins.
	identity, _ := matrix.FromSlice(2, 2, []float32{1, 0, 0, 1})
	require.NoError(t, m.LoadStateDict(map[string]*matrix.Matrix{
		"0.weight": identity,
		"0.bias":   matrix.New(2, 1),
	}))

	features, _ := matrix.FromSlice(2, 4, []float32{
		1, 0, 1, 0,
		0, 1, 0, 1,
	})
	labels, _ := matrix.FromSlice(1, 4, []float32{0, 1, 1, 1})

	acc, err := Accuracy(m, features, labels)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	_, err = Accuracy(m, features, matrix.New(1, 3))
	assert.ErrorIs(t, err, dataset.ErrMalformed)
	_, err = Accuracy(m, matrix.New(3, 4), labels)
	assert.ErrorIs(t, err, dataset.ErrMalformed)
}

func TestAccuracy_Chunks(t *testing.T) {
	features, labels := blobs(2*evalChunk+17, 4)
	targets, _ := dataset.OneHotLabels(labels, 2)
	m := newBlobModel(t)

	_, err := Run(context.Background(), m, RunConfig{
		Features:     features,
		Targets:      targets,
		Epochs:       2,
		BatchSize:    32,
		LearningRate: optim.Constant(0.5),
		Logger:       quietLogger(),
	})
	require.NoError(t, err)

	acc, err := Accuracy(m, features, labels)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(acc))
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)
}
