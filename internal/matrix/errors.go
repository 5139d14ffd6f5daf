package matrix

import (
	"errors"
	"fmt"
	"strings"
)

// Kernel faults. They describe bugs in the caller, so the operations panic
// with an *OpError wrapping one of these instead of returning it.
var (
	ErrInvalidShape    = errors.New("invalid shape")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrAliased         = errors.New("output aliases an input")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrReleased        = errors.New("matrix has been released")
)

// OpError reports which kernel operation rejected its operands and their shapes.
type OpError struct {
	Op     string  // Kernel operation, e.g. "multiply".
	Shapes []Shape // Operand shapes in argument order.
	Err    error   // One of the Err* sentinels.
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if len(e.Shapes) == 0 {
		return fmt.Sprintf("matrix: %s: %v", e.Op, e.Err)
	}
	parts := make([]string, len(e.Shapes))
	for i, s := range e.Shapes {
		parts[i] = s.String()
	}
	return fmt.Sprintf("matrix: %s: %v %s", e.Op, e.Err, strings.Join(parts, " "))
}

// Unwrap returns the underlying sentinel.
func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, err error, ms ...*Matrix) *OpError {
	shapes := make([]Shape, 0, len(ms))
	for _, m := range ms {
		if m == nil {
			shapes = append(shapes, Shape{})
			continue
		}
		shapes = append(shapes, m.Shape())
	}
	return &OpError{Op: op, Shapes: shapes, Err: err}
}

// must panics with err when it is non-nil.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// checkLive rejects nil and released operands.
func checkLive(op string, ms ...*Matrix) error {
	for _, m := range ms {
		if m == nil || m.data == nil {
			return opError(op, ErrReleased, ms...)
		}
	}
	return nil
}

// checkSame requires every operand to share one shape.
func checkSame(op string, ms ...*Matrix) error {
	if err := checkLive(op, ms...); err != nil {
		return err
	}
	for _, m := range ms[1:] {
		if m.rows != ms[0].rows || m.cols != ms[0].cols {
			return opError(op, ErrShapeMismatch, ms...)
		}
	}
	return nil
}

// checkDistinct requires out to be a different buffer from every input.
func checkDistinct(op string, out *Matrix, ins ...*Matrix) error {
	for _, in := range ins {
		if in == out {
			return opError(op, ErrAliased, append(ins, out)...)
		}
	}
	return nil
}

// CheckElementwise validates operands of Add, Subtract and Hadamard.
// The output may be one of the inputs.
func CheckElementwise(a, b, out *Matrix) error {
	return checkSame("elementwise", a, b, out)
}

// CheckTranspose validates that out has the reversed shape of in and is a distinct buffer.
func CheckTranspose(in, out *Matrix) error {
	if err := checkLive("transpose", in, out); err != nil {
		return err
	}
	if in.rows != out.cols || in.cols != out.rows {
		return opError("transpose", ErrShapeMismatch, in, out)
	}
	return checkDistinct("transpose", out, in)
}

// CheckMultiply validates out = a × b: a.cols == b.rows, out is a.rows × b.cols
// and shares no buffer with a or b.
func CheckMultiply(a, b, out *Matrix) error {
	if err := checkLive("multiply", a, b, out); err != nil {
		return err
	}
	if a.cols != b.rows || out.rows != a.rows || out.cols != b.cols {
		return opError("multiply", ErrShapeMismatch, a, b, out)
	}
	return checkDistinct("multiply", out, a, b)
}

// CheckVectorAdd validates a column-vector broadcast: vec is in.rows × 1.
func CheckVectorAdd(in, vec, out *Matrix) error {
	if err := checkSame("vector add", in, out); err != nil {
		return err
	}
	if err := checkLive("vector add", vec); err != nil {
		return err
	}
	if vec.cols != 1 || vec.rows != in.rows {
		return opError("vector add", ErrShapeMismatch, in, vec, out)
	}
	return nil
}

// CheckRowMean validates that out is an in.rows × 1 column vector.
func CheckRowMean(in, out *Matrix) error {
	if err := checkLive("row mean", in, out); err != nil {
		return err
	}
	if out.cols != 1 || out.rows != in.rows {
		return opError("row mean", ErrShapeMismatch, in, out)
	}
	return nil
}

// CheckArgMax validates that out is a 1 × in.cols row.
func CheckArgMax(in, out *Matrix) error {
	if err := checkLive("argmax", in, out); err != nil {
		return err
	}
	if out.rows != 1 || out.cols != in.cols {
		return opError("argmax", ErrShapeMismatch, in, out)
	}
	return checkDistinct("argmax", out, in)
}

// CheckOneHot validates a 1 × N row of class indices against a numClasses × N output.
func CheckOneHot(in, out *Matrix, numClasses int) error {
	if err := checkLive("one-hot", in, out); err != nil {
		return err
	}
	if in.rows != 1 || out.cols != in.cols || out.rows != numClasses {
		return opError("one-hot", ErrShapeMismatch, in, out)
	}
	return checkDistinct("one-hot", out, in)
}
