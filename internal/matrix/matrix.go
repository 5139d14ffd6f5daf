// Package matrix implements the dense float32 kernel behind the network engine.
//
// A Matrix is a rows × cols buffer in row-major order (data[i*cols+j]).
// Every operation writes into an output matrix supplied by the caller and
// validates the shapes of its operands first; a violation is a programmer
// error and panics with an *OpError. The Check* functions run the same
// validation without panicking.
package matrix

import (
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"

	"github.com/born-ml/mlp/internal/parallel"
)

// Shape is the (rows, cols) pair of a matrix.
type Shape struct {
	Rows int
	Cols int
}

// Validate checks that both dimensions are positive.
func (s Shape) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: %s (dimensions must be > 0)", ErrInvalidShape, s)
	}
	return nil
}

// T returns the transposed shape.
func (s Shape) T() Shape {
	return Shape{Rows: s.Cols, Cols: s.Rows}
}

// NumElements returns rows × cols.
func (s Shape) NumElements() int {
	return s.Rows * s.Cols
}

// String formats the shape as [rows,cols].
func (s Shape) String() string {
	return fmt.Sprintf("[%d,%d]", s.Rows, s.Cols)
}

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	rows int
	cols int
	data []float32
}

var kernelConfig atomic.Pointer[parallel.Config]

func init() {
	cfg := parallel.DefaultConfig()
	kernelConfig.Store(&cfg)
}

// SetParallelism replaces the configuration used to spread kernel row loops
// across goroutines. Results do not depend on it.
func SetParallelism(cfg parallel.Config) {
	kernelConfig.Store(&cfg)
}

// Parallelism returns the current kernel configuration.
func Parallelism() parallel.Config {
	return *kernelConfig.Load()
}

// New allocates a zero-filled rows × cols matrix.
// Panics if either dimension is not positive.
func New(rows, cols int) *Matrix {
	s := Shape{Rows: rows, Cols: cols}
	if err := s.Validate(); err != nil {
		panic(&OpError{Op: "new", Shapes: []Shape{s}, Err: ErrInvalidShape})
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float32, s.NumElements())}
}

// Full allocates a rows × cols matrix with every entry set to value.
func Full(rows, cols int, value float32) *Matrix {
	m := New(rows, cols)
	m.Fill(value)
	return m
}

// FromSlice builds a rows × cols matrix from row-major data.
// The data is copied.
func FromSlice(rows, cols int, data []float32) (*Matrix, error) {
	s := Shape{Rows: rows, Cols: cols}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(data) != s.NumElements() {
		return nil, fmt.Errorf("%w: %d values for shape %s", ErrShapeMismatch, len(data), s)
	}
	m := New(rows, cols)
	copy(m.data, data)
	return m, nil
}

// Uniform allocates a rows × cols matrix with independent draws from [lo, hi).
func Uniform(rows, cols int, lo, hi float32, rng *rand.Rand) *Matrix {
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = lo + rng.Float32()*(hi-lo)
	}
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Shape returns the matrix shape.
func (m *Matrix) Shape() Shape { return Shape{Rows: m.rows, Cols: m.cols} }

// Data returns the row-major backing slice.
// WARNING: Direct access to underlying memory.
func (m *Matrix) Data() []float32 { return m.data }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) float32 {
	m.checkIndex("at", i, j)
	return m.data[i*m.cols+j]
}

// Set writes the entry at row i, column j.
func (m *Matrix) Set(i, j int, v float32) {
	m.checkIndex("set", i, j)
	m.data[i*m.cols+j] = v
}

func (m *Matrix) checkIndex(op string, i, j int) {
	must(checkLive(op, m))
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(&OpError{
			Op:     fmt.Sprintf("%s(%d,%d)", op, i, j),
			Shapes: []Shape{m.Shape()},
			Err:    ErrIndexOutOfRange,
		})
	}
}

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	must(checkLive("clone", m))
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]float32, len(m.data))}
	copy(out.data, m.data)
	return out
}

// CopyFrom overwrites m with the contents of src. Shapes must match.
func (m *Matrix) CopyFrom(src *Matrix) {
	must(checkSame("copy", src, m))
	copy(m.data, src.data)
}

// Zero sets every entry to 0.
func (m *Matrix) Zero() {
	m.Fill(0)
}

// Fill sets every entry to value.
func (m *Matrix) Fill(value float32) {
	must(checkLive("fill", m))
	for i := range m.data {
		m.data[i] = value
	}
}

// Release drops the backing buffer. Any later operation on m panics with ErrReleased.
func (m *Matrix) Release() {
	if m == nil {
		return
	}
	m.data = nil
}

// Released reports whether Release has been called.
func (m *Matrix) Released() bool {
	return m == nil || m.data == nil
}

// SliceCols copies columns [start, end) into out, which must be rows × (end-start).
func (m *Matrix) SliceCols(start, end int, out *Matrix) {
	must(checkLive("slice cols", m, out))
	if start < 0 || end > m.cols || start >= end {
		panic(opError(fmt.Sprintf("slice cols [%d:%d]", start, end), ErrIndexOutOfRange, m, out))
	}
	if out.rows != m.rows || out.cols != end-start {
		panic(opError(fmt.Sprintf("slice cols [%d:%d]", start, end), ErrShapeMismatch, m, out))
	}
	must(checkDistinct("slice cols", out, m))

	for i := 0; i < m.rows; i++ {
		copy(out.data[i*out.cols:(i+1)*out.cols], m.data[i*m.cols+start:i*m.cols+end])
	}
}

// SliceRows copies rows [start, end) into out, which must be (end-start) × cols.
func (m *Matrix) SliceRows(start, end int, out *Matrix) {
	must(checkLive("slice rows", m, out))
	if start < 0 || end > m.rows || start >= end {
		panic(opError(fmt.Sprintf("slice rows [%d:%d]", start, end), ErrIndexOutOfRange, m, out))
	}
	if out.cols != m.cols || out.rows != end-start {
		panic(opError(fmt.Sprintf("slice rows [%d:%d]", start, end), ErrShapeMismatch, m, out))
	}
	must(checkDistinct("slice rows", out, m))

	copy(out.data, m.data[start*m.cols:end*m.cols])
}

// EqualApprox reports whether a and b share a shape and every pair of entries
// differs by at most tol.
func EqualApprox(a, b *Matrix, tol float32) bool {
	if a.Released() || b.Released() || a.rows != b.rows || a.cols != b.cols {
		return false
	}
	for i, v := range a.data {
		d := v - b.data[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}

// String renders the matrix one row per line.
func (m *Matrix) String() string {
	if m.Released() {
		return "Matrix(released)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Matrix%s\n[", m.Shape())
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString("\n ")
		}
		sb.WriteByte('[')
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%g", m.data[i*m.cols+j])
		}
		sb.WriteByte(']')
	}
	sb.WriteByte(']')
	return sb.String()
}
