// Package trainer runs mini-batch training epochs over an nn.Model.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/born-ml/mlp/internal/dataset"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
)

// evalChunk bounds the number of samples predicted at once by Accuracy.
const evalChunk = 1000

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	// Training set: features F×N and one-hot targets C×N.
	Features *matrix.Matrix
	Targets  *matrix.Matrix

	// Optional evaluation set: features F×M and class labels 1×M.
	TestFeatures *matrix.Matrix
	TestLabels   *matrix.Matrix

	Epochs       int
	BatchSize    int
	LearningRate optim.Schedule
	LogEvery     int // batches between log lines (default 100)

	// Progress receives a per-epoch progress bar; nil disables it.
	Progress io.Writer
	// Logger defaults to log.Default().
	Logger *log.Logger

	// OnEpoch is called after every epoch; a non-nil error stops training.
	OnEpoch func(EpochResult) error
}

// EpochResult summarizes one epoch.
type EpochResult struct {
	Epoch    int
	LR       float32
	MeanLoss float64
	Duration time.Duration
	// Accuracy on the test set, or -1 without one.
	Accuracy float64
}

func (cfg *RunConfig) validate() error {
	switch {
	case cfg.Features == nil || cfg.Targets == nil:
		return errors.New("trainer: features and targets are required")
	case cfg.Epochs <= 0:
		return errors.New("trainer: epochs must be > 0")
	case cfg.BatchSize <= 0:
		return errors.New("trainer: batch size must be > 0")
	case cfg.LearningRate == nil:
		return errors.New("trainer: learning rate schedule is required")
	case (cfg.TestFeatures == nil) != (cfg.TestLabels == nil):
		return errors.New("trainer: test features and labels must be given together")
	}
	return nil
}

// Run trains m for cfg.Epochs epochs and returns one result per completed
// epoch. It opens and closes the model's training session. Cancelling ctx
// stops training between batches and returns ctx.Err().
func Run(ctx context.Context, m *nn.Model, cfg RunConfig) ([]EpochResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	batches, err := dataset.NewBatcher(cfg.Features, cfg.Targets, cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	if err := m.InitTraining(cfg.BatchSize); err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	defer m.EndTraining()

	opt := optim.NewSGD(optim.SGDConfig{LR: cfg.LearningRate.LR(0)})
	var results []EpochResult

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		opt.SetLR(cfg.LearningRate.LR(epoch))
		start := time.Now()

		res, err := runEpoch(ctx, m, opt, batches, epoch, cfg, logger)
		if err != nil {
			return results, err
		}
		res.Duration = time.Since(start)

		res.Accuracy = -1
		if cfg.TestFeatures != nil {
			acc, err := Accuracy(m, cfg.TestFeatures, cfg.TestLabels)
			if err != nil {
				return results, fmt.Errorf("trainer: %w", err)
			}
			res.Accuracy = acc
		}

		logger.Printf("epoch=%d lr=%.4f mean_loss=%.4f accuracy=%.4f duration=%s",
			res.Epoch, res.LR, res.MeanLoss, res.Accuracy, res.Duration.Round(time.Millisecond))

		results = append(results, res)
		if cfg.OnEpoch != nil {
			if err := cfg.OnEpoch(res); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

func runEpoch(
	ctx context.Context,
	m *nn.Model,
	opt *optim.SGD,
	batches *dataset.Batcher,
	epoch int,
	cfg RunConfig,
	logger *log.Logger,
) (EpochResult, error) {
	var (
		window  Window
		lossSum float64
		n       = batches.Len()
		bar     = NewProgress(cfg.Progress, fmt.Sprintf("epoch %d", epoch), n)
	)
	defer bar.Finish()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return EpochResult{}, err
		}

		startData := time.Now()
		x, y := batches.Batch(i)
		dataTime := time.Since(startData)

		startCompute := time.Now()
		loss := m.Forward(x, y)
		m.CalculateGradients(x, y)
		opt.Step(m)
		computeTime := time.Since(startCompute)

		window.Record(batches.Size(), dataTime, computeTime, float64(loss))
		lossSum += float64(loss)
		bar.Update(i+1, loss)

		if (i+1)%cfg.LogEvery == 0 {
			snap := window.Snapshot()
			logger.Printf("epoch=%d batch=%d/%d samples_per_sec=%.1f data_ms=%.2f compute_ms=%.2f loss=%.4f",
				epoch,
				i+1, n,
				snap.SamplesPerSec,
				snap.AvgDataMS,
				snap.AvgComputeMS,
				snap.MeanLoss,
			)
		}
	}

	return EpochResult{
		Epoch:    epoch,
		LR:       opt.GetLR(),
		MeanLoss: lossSum / float64(n),
	}, nil
}

// Accuracy returns the fraction of samples in features (F×N) whose
// predicted class equals labels (1×N).
func Accuracy(m *nn.Model, features, labels *matrix.Matrix) (float64, error) {
	n := features.Cols()
	if labels.Rows() != 1 || labels.Cols() != n {
		return 0, fmt.Errorf("%w: labels %s for %d samples", dataset.ErrMalformed, labels.Shape(), n)
	}
	if features.Rows() != m.InputSize() {
		return 0, fmt.Errorf("%w: %d features, model expects %d", dataset.ErrMalformed, features.Rows(), m.InputSize())
	}

	correct := 0
	for start := 0; start < n; start += evalChunk {
		end := min(start+evalChunk, n)
		x := matrix.New(features.Rows(), end-start)
		features.SliceCols(start, end, x)
		out := matrix.New(m.OutputSize(), end-start)
		m.Predict(x, out)

		for j, class := range matrix.ArgMaxIndices(out) {
			if float32(class) == labels.At(0, start+j) {
				correct++
			}
		}
	}
	return float64(correct) / float64(n), nil
}
