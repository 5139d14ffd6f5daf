package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
train: data/train.csv
test: data/test.csv
features: 4
classes: 3
layers:
  - size: 8
    activation: relu
  - size: 3
    activation: Softmax
batch_size: 16
learning_rate: 0.05
lr_decay: 0.5
decay_every: 2
seed: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/train.csv", cfg.Train)
	assert.Equal(t, "data/test.csv", cfg.Test)
	assert.Equal(t, 4, cfg.Features)
	assert.Equal(t, []LayerConfig{{Size: 8, Activation: nn.ReLU}, {Size: 3, Activation: nn.Softmax}}, cfg.Layers)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, float32(0.05), cfg.Rate)
	assert.Equal(t, int64(7), cfg.Seed)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, Default().Epochs, cfg.Epochs)
	assert.Equal(t, Default().Scale, cfg.Scale)
	assert.Equal(t, 100, cfg.LogEvery)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "open config")

	_, err = Load(writeConfig(t, "batchsize: 4\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	_, err = Load(writeConfig(t, "layers:\n  - size: 3\n    activation: tanh\n"))
	assert.ErrorIs(t, err, nn.ErrUnknownActivation)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.Train = "a.csv"
	cfg.ApplyOverrides(Overrides{Epochs: 9, Rate: 0.3, Checkpoint: "out.safetensors", Workers: 2})

	assert.Equal(t, "a.csv", cfg.Train)
	assert.Equal(t, 9, cfg.Epochs)
	assert.Equal(t, float32(0.3), cfg.Rate)
	assert.Equal(t, "out.safetensors", cfg.Checkpoint)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, Default().BatchSize, cfg.BatchSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no train", func(c *Config) { c.Train = "" }, "train dataset path"},
		{"features", func(c *Config) { c.Features = 0 }, "features must be > 0"},
		{"no layers", func(c *Config) { c.Layers = nil }, "at least one layer"},
		{"layer size", func(c *Config) { c.Layers[1].Size = 0 }, "layers[1].size"},
		{"classes", func(c *Config) { c.Classes = 5 }, "must equal classes 5"},
		{"batch", func(c *Config) { c.BatchSize = -1 }, "batch_size must be > 0 (got -1)"},
		{"epochs", func(c *Config) { c.Epochs = 0 }, "epochs"},
		{"rate", func(c *Config) { c.Rate = 0 }, "learning_rate"},
		{"decay", func(c *Config) { c.LRDecay = 1.5 }, "lr_decay"},
		{"scale", func(c *Config) { c.Scale = 0 }, "scale"},
		{"workers", func(c *Config) { c.Workers = -2 }, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Train = "train.csv"
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestBuild(t *testing.T) {
	cfg := Default()
	cfg.Seed = 3
	m, err := cfg.Build()
	require.NoError(t, err)

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, 784, m.InputSize())
	assert.Equal(t, 10, m.OutputSize())
	assert.Equal(t, nn.Softmax, m.Layer(3).Activation())
	require.NoError(t, m.InitTraining(cfg.BatchSize))
	m.EndTraining()

	cfg.Layers[0].Size = 0
	_, err = cfg.Build()
	assert.ErrorIs(t, err, nn.ErrInvalidLayerSize)
}

func TestSchedule(t *testing.T) {
	cfg := Default()
	cfg.Rate = 0.4
	cfg.LRDecay = 0.5
	cfg.DecayEvery = 2

	s := cfg.Schedule()
	assert.Equal(t, optim.StepDecay{Initial: 0.4, Factor: 0.5, Every: 2}, s)
	assert.InDelta(t, 0.4, s.LR(1), 1e-7)
	assert.InDelta(t, 0.2, s.LR(2), 1e-7)
}

func TestParallelism(t *testing.T) {
	cfg := Default()

	cfg.Workers = 1
	assert.False(t, cfg.Parallelism().Enabled)

	cfg.Workers = 3
	assert.Equal(t, 3, cfg.Parallelism().NumWorkers)

	cfg.Workers = 0
	assert.Positive(t, cfg.Parallelism().NumWorkers)
}
