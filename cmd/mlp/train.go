package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/born-ml/mlp/internal/config"
	"github.com/born-ml/mlp/internal/dataset"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/serialization"
	"github.com/born-ml/mlp/internal/trainer"
)

// loadConfig reads path, or starts from the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadSplit reads a dataset and returns its scaled features (F×N) and its
// labels (1×N).
func loadSplit(path string, cfg *config.Config) (features, labels *matrix.Matrix, err error) {
	data, err := dataset.Load(path)
	if err != nil {
		return nil, nil, err
	}
	labels, features, err = dataset.Split(data)
	data.Release()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if features.Rows() != cfg.Features {
		return nil, nil, fmt.Errorf("%s: %w: %d features, config expects %d",
			path, dataset.ErrMalformed, features.Rows(), cfg.Features)
	}
	dataset.Scale(features, cfg.Scale)
	return features, labels, nil
}

// loadCheckpoint restores m's parameters from a SafeTensors file.
func loadCheckpoint(m *nn.Model, path string) error {
	state, _, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return err
	}
	if err := m.LoadStateDict(state); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (defaults to the MNIST network)")
	train := fs.String("train", "", "Override training dataset path")
	test := fs.String("test", "", "Override test dataset path")
	epochs := fs.Int("epochs", 0, "Number of epochs")
	batchSize := fs.Int("batch-size", 0, "Batch size")
	lr := fs.Float64("lr", 0, "Initial learning rate")
	seed := fs.Int64("seed", 0, "PRNG seed for weight initialization")
	logEvery := fs.Int("log-every", 0, "Log every N batches")
	checkpoint := fs.String("checkpoint", "", "Write a SafeTensors checkpoint here after every epoch")
	resume := fs.String("resume", "", "Start from the parameters of this checkpoint")
	workers := fs.Int("workers", 0, "Kernel worker goroutines (1 disables parallelism)")
	progress := fs.Bool("progress", true, "Draw a progress bar on stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(config.Overrides{
		Train:      *train,
		Test:       *test,
		Epochs:     *epochs,
		BatchSize:  *batchSize,
		Rate:       float32(*lr),
		Seed:       *seed,
		LogEvery:   *logEvery,
		Checkpoint: *checkpoint,
		Workers:    *workers,
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	matrix.SetParallelism(cfg.Parallelism())

	features, labels, err := loadSplit(cfg.Train, cfg)
	if err != nil {
		return fmt.Errorf("could not load dataset: %w", err)
	}
	targets, err := dataset.OneHotLabels(labels, cfg.Classes)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Train, err)
	}
	log.Printf("train=%s samples=%d features=%d classes=%d", cfg.Train, features.Cols(), features.Rows(), cfg.Classes)

	runCfg := trainer.RunConfig{
		Features:     features,
		Targets:      targets,
		Epochs:       cfg.Epochs,
		BatchSize:    cfg.BatchSize,
		LearningRate: cfg.Schedule(),
		LogEvery:     cfg.LogEvery,
	}
	if *progress {
		runCfg.Progress = os.Stderr
	}
	if cfg.Test != "" {
		testFeatures, testLabels, err := loadSplit(cfg.Test, cfg)
		if err != nil {
			return fmt.Errorf("could not load dataset: %w", err)
		}
		runCfg.TestFeatures, runCfg.TestLabels = testFeatures, testLabels
		log.Printf("test=%s samples=%d", cfg.Test, testFeatures.Cols())
	}

	m, err := cfg.Build()
	if err != nil {
		return err
	}
	if *resume != "" {
		if err := loadCheckpoint(m, *resume); err != nil {
			return err
		}
		log.Printf("resumed from %s", *resume)
	}
	log.Printf("model:\n%s", m.Summary())

	if cfg.Checkpoint != "" {
		runCfg.OnEpoch = func(res trainer.EpochResult) error {
			meta := map[string]string{
				"epoch":     strconv.Itoa(res.Epoch),
				"mean_loss": strconv.FormatFloat(res.MeanLoss, 'g', 6, 64),
			}
			if err := serialization.WriteSafeTensors(cfg.Checkpoint, m.StateDict(), meta); err != nil {
				return fmt.Errorf("checkpoint: %w", err)
			}
			log.Printf("checkpoint=%s epoch=%d", cfg.Checkpoint, res.Epoch)
			return nil
		}
	}

	results, err := trainer.Run(ctx, m, runCfg)
	if errors.Is(err, context.Canceled) {
		log.Printf("training interrupted after %d epochs", len(results))
		return nil
	}
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	return nil
}

func runEval(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config describing the network")
	data := fs.String("data", "", "Dataset to evaluate")
	weights := fs.String("weights", "", "SafeTensors checkpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *data == "" || *weights == "" {
		return errors.New("-data and -weights are required")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	features, labels, err := loadSplit(*data, cfg)
	if err != nil {
		return fmt.Errorf("could not load dataset: %w", err)
	}
	m, err := cfg.Build()
	if err != nil {
		return err
	}
	if err := loadCheckpoint(m, *weights); err != nil {
		return err
	}

	acc, err := trainer.Accuracy(m, features, labels)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "samples=%d accuracy=%.4f\n", features.Cols(), acc)
	return nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	images := fs.String("images", "", "IDX image file (optionally .gz)")
	labels := fs.String("labels", "", "IDX label file (optionally .gz)")
	out := fs.String("out", "", "Text dataset to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *images == "" || *labels == "" || *out == "" {
		return errors.New("-images, -labels and -out are required")
	}

	//nolint:gosec // G304: output path comes from the command line
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	n, err := dataset.ConvertIDX(*images, *labels, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Printf("wrote %d samples to %s", n, *out)
	return nil
}
