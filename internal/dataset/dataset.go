// Package dataset loads labelled samples from whitespace-delimited text
// files and prepares them for training.
//
// File format: one sample per line, the first column is the integer class
// label and the remaining columns are numeric features. Every line must
// have the same number of columns. MNIST exported this way has 785 columns
// (label + 28×28 pixels in 0..255).
//
// Example:
//
//	data, err := dataset.Load("mnist_train.txt")
//	labels, features, err := dataset.Split(data)
//	dataset.Scale(features, 1.0/255)
//	targets, err := dataset.OneHotLabels(labels, 10)
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/mlp/internal/matrix"
)

// Dataset errors.
var (
	ErrEmpty     = errors.New("dataset is empty")
	ErrMalformed = errors.New("malformed dataset")
	ErrLabel     = errors.New("invalid class label")
)

// maxLineSize bounds a single sample line.
const maxLineSize = 16 * 1024 * 1024

// Load reads the file at path into an N×C matrix, one row per line.
// A missing file yields an error wrapping fs.ErrNotExist.
func Load(path string) (*matrix.Matrix, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for dataset loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	m, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Read parses whitespace-delimited samples from r. Blank lines are skipped.
func Read(r io.Reader) (*matrix.Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		values []float32
		cols   int
		rows   int
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%w: line %d has %d columns, want %d", ErrMalformed, lineNo, len(fields), cols)
		}

		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %w", ErrMalformed, lineNo, i+1, err)
			}
			values = append(values, float32(v))
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if rows == 0 {
		return nil, ErrEmpty
	}

	return matrix.FromSlice(rows, cols, values)
}

// Split separates the label column of data (N×(1+F)) from the features and
// transposes both into column-per-sample layout: labels is 1×N and features
// is F×N.
func Split(data *matrix.Matrix) (labels, features *matrix.Matrix, err error) {
	n, cols := data.Rows(), data.Cols()
	if cols < 2 {
		return nil, nil, fmt.Errorf("%w: %d columns, need a label and at least one feature", ErrMalformed, cols)
	}

	labelCol := matrix.New(n, 1)
	data.SliceCols(0, 1, labelCol)
	labels = matrix.New(1, n)
	matrix.Transpose(labelCol, labels)

	rows := matrix.New(n, cols-1)
	data.SliceCols(1, cols, rows)
	features = matrix.New(cols-1, n)
	matrix.Transpose(rows, features)

	return labels, features, nil
}

// Scale multiplies every feature by factor in place, e.g. 1/255 for pixels.
func Scale(features *matrix.Matrix, factor float32) {
	matrix.ScalarMultiply(features, factor, features)
}

// OneHotLabels encodes a 1×N row of class indices as a classes×N matrix.
func OneHotLabels(labels *matrix.Matrix, classes int) (*matrix.Matrix, error) {
	if labels.Rows() != 1 {
		return nil, fmt.Errorf("%w: labels must be a single row, got %s", ErrMalformed, labels.Shape())
	}
	if classes <= 0 {
		return nil, fmt.Errorf("%w: %d classes", ErrLabel, classes)
	}
	for j, v := range labels.Data() {
		// Range check in float space: int(v) is undefined for huge v.
		if v < 0 || v >= float32(classes) || float64(v) != math.Trunc(float64(v)) {
			return nil, fmt.Errorf("%w: sample %d has label %v, want an integer in [0, %d)", ErrLabel, j, v, classes)
		}
	}

	out := matrix.New(classes, labels.Cols())
	matrix.OneHot(labels, out, classes)
	return out, nil
}
