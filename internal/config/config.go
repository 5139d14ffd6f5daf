// Package config loads the YAML description of a training run.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
	"github.com/born-ml/mlp/internal/parallel"
)

// LayerConfig describes one fully connected layer.
type LayerConfig struct {
	Size       int               `yaml:"size"`
	Activation nn.ActivationType `yaml:"activation"`
}

// Config captures the runtime knobs for a training run.
type Config struct {
	Train      string        `yaml:"train"`
	Test       string        `yaml:"test"`
	Features   int           `yaml:"features"`
	Classes    int           `yaml:"classes"`
	Layers     []LayerConfig `yaml:"layers"`
	BatchSize  int           `yaml:"batch_size"`
	Epochs     int           `yaml:"epochs"`
	Rate       float32       `yaml:"learning_rate"`
	LRDecay    float32       `yaml:"lr_decay"`
	DecayEvery int           `yaml:"decay_every"`
	Seed       int64         `yaml:"seed"`
	Scale      float32       `yaml:"scale"`
	LogEvery   int           `yaml:"log_every"`
	Checkpoint string        `yaml:"checkpoint"`
	Workers    int           `yaml:"workers"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Train      string
	Test       string
	Epochs     int
	BatchSize  int
	Rate       float32
	Seed       int64
	LogEvery   int
	Checkpoint string
	Workers    int
}

// Default returns the MNIST network: 784 → 100 → 50 → 20 sigmoid layers and
// a 10-way softmax output.
func Default() *Config {
	return &Config{
		Features: 784,
		Classes:  10,
		Layers: []LayerConfig{
			{Size: 100, Activation: nn.Sigmoid},
			{Size: 50, Activation: nn.Sigmoid},
			{Size: 20, Activation: nn.Sigmoid},
			{Size: 10, Activation: nn.Softmax},
		},
		BatchSize: 32,
		Epochs:    5,
		Rate:      0.1,
		Scale:     1.0 / 255,
		LogEvery:  100,
	}
}

// Load reads a YAML config on top of Default. Unknown keys are rejected.
// The result is not validated so that overrides can still fill it in.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for config loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Train != "" {
		c.Train = o.Train
	}
	if o.Test != "" {
		c.Test = o.Test
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Rate > 0 {
		c.Rate = o.Rate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Checkpoint != "" {
		c.Checkpoint = o.Checkpoint
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Train == "" {
		return errors.New("train dataset path must be set")
	}
	if c.Features <= 0 {
		return fmt.Errorf("features must be > 0 (got %d)", c.Features)
	}
	if c.Classes <= 0 {
		return fmt.Errorf("classes must be > 0 (got %d)", c.Classes)
	}
	if len(c.Layers) == 0 {
		return errors.New("at least one layer is required")
	}
	for i, l := range c.Layers {
		if l.Size <= 0 {
			return fmt.Errorf("layers[%d].size must be > 0 (got %d)", i, l.Size)
		}
	}
	if last := c.Layers[len(c.Layers)-1].Size; last != c.Classes {
		return fmt.Errorf("last layer size %d must equal classes %d", last, c.Classes)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.Rate)
	}
	if c.LRDecay < 0 || c.LRDecay > 1 {
		return fmt.Errorf("lr_decay must be in [0, 1] (got %g)", c.LRDecay)
	}
	if c.DecayEvery < 0 {
		return fmt.Errorf("decay_every must be >= 0 (got %d)", c.DecayEvery)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be > 0 (got %g)", c.Scale)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 100
	}
	return nil
}

// Build constructs the model described by the layer list.
func (c *Config) Build() (*nn.Model, error) {
	m := nn.NewModel(nn.ModelConfig{Seed: c.Seed})
	in := c.Features
	for i, lc := range c.Layers {
		l, err := nn.NewLayer(in, lc.Size, lc.Activation)
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		if err := m.AddLayer(l); err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		in = lc.Size
	}
	return m, nil
}

// Schedule returns the learning rate schedule.
func (c *Config) Schedule() optim.Schedule {
	return optim.StepDecay{Initial: c.Rate, Factor: c.LRDecay, Every: c.DecayEvery}
}

// Parallelism returns the kernel parallelism settings: 0 workers uses every
// CPU and 1 runs sequentially.
func (c *Config) Parallelism() parallel.Config {
	switch c.Workers {
	case 0:
		cfg := parallel.DefaultConfig()
		cfg.NumWorkers = runtime.GOMAXPROCS(0)
		return cfg
	case 1:
		return parallel.Sequential()
	default:
		cfg := parallel.DefaultConfig()
		cfg.NumWorkers = c.Workers
		return cfg
	}
}
