package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/born-ml/mlp/internal/dataset"
	"github.com/born-ml/mlp/internal/matrix"
)

// The 24-step grayscale ramp of the 256-color ANSI palette.
const (
	grayBase  = 232
	graySteps = 23
)

// grayLevel maps v in [0, maxValue] onto the grayscale ramp, clamping
// values outside the range.
func grayLevel(v, maxValue float32) int {
	if maxValue <= 0 || v <= 0 {
		return grayBase
	}
	if v >= maxValue {
		return grayBase + graySteps
	}
	return grayBase + int(v*graySteps/maxValue)
}

// renderGrid writes pixels as rows of width cells, two spaces per cell
// with an ANSI background color.
func renderGrid(w io.Writer, pixels []float32, width int, maxValue float32) error {
	if width <= 0 || len(pixels)%width != 0 {
		return fmt.Errorf("%d pixels do not form rows of %d", len(pixels), width)
	}
	var b strings.Builder
	for i, v := range pixels {
		fmt.Fprintf(&b, "\033[48;5;%dm  \033[0m", grayLevel(v, maxValue))
		if (i+1)%width == 0 {
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func runShow(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	data := fs.String("data", "", "Dataset file")
	index := fs.Int("index", 0, "Sample (line) to show")
	width := fs.Int("width", 28, "Pixels per row")
	maxValue := fs.Float64("max", 255, "Feature value rendered as white")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *data == "" {
		return errors.New("-data is required")
	}

	all, err := dataset.Load(*data)
	if err != nil {
		return fmt.Errorf("could not load dataset: %w", err)
	}
	if *index < 0 || *index >= all.Rows() {
		return fmt.Errorf("index %d out of range [0, %d)", *index, all.Rows())
	}

	row := matrix.New(1, all.Cols())
	all.SliceRows(*index, *index+1, row)
	sample := row.Data()

	fmt.Fprintf(w, "sample=%d label=%g\n", *index, sample[0])
	return renderGrid(w, sample[1:], *width, float32(*maxValue))
}
