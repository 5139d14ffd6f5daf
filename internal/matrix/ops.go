package matrix

import "github.com/born-ml/mlp/internal/parallel"

// forRows hands spans of m's rows to f as flat index ranges [lo, hi),
// using the kernel parallelism settings.
func forRows(m *Matrix, f func(lo, hi int)) {
	cols := m.cols
	parallel.ForRange(m.rows, func(start, end int) {
		f(start*cols, end*cols)
	}, Parallelism())
}

// Add computes out = a + b elementwise.
func Add(a, b, out *Matrix) {
	must(checkSame("add", a, b, out))
	forRows(out, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.data[i] = a.data[i] + b.data[i]
		}
	})
}

// Subtract computes out = a - b elementwise.
func Subtract(a, b, out *Matrix) {
	must(checkSame("subtract", a, b, out))
	forRows(out, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.data[i] = a.data[i] - b.data[i]
		}
	})
}

// Hadamard computes the elementwise product out = a ⊙ b.
func Hadamard(a, b, out *Matrix) {
	must(checkSame("hadamard", a, b, out))
	forRows(out, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.data[i] = a.data[i] * b.data[i]
		}
	})
}

// ScalarMultiply computes out = in · s.
func ScalarMultiply(in *Matrix, s float32, out *Matrix) {
	must(checkSame("scalar multiply", in, out))
	forRows(out, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.data[i] = in.data[i] * s
		}
	})
}

// Transpose writes inᵀ into out. out must be a different buffer.
func Transpose(in, out *Matrix) {
	must(CheckTranspose(in, out))

	for i := 0; i < out.rows; i++ {
		row := out.data[i*out.cols : (i+1)*out.cols]
		for j := range row {
			row[j] = in.data[j*in.cols+i]
		}
	}
}

// Multiply computes the matrix product out = a × b.
//
// Each output cell is accumulated over k in ascending order by a single
// goroutine, so spreading rows across workers does not change the result.
func Multiply(a, b, out *Matrix) {
	must(CheckMultiply(a, b, out))

	m, k, n := a.rows, a.cols, b.cols
	parallel.ForRange(m, func(start, end int) {
		matmulRows(out.data, a.data, b.data, start, end, k, n)
	}, Parallelism())
}

// matmulRows fills rows [start, end) of C = A × B.
// C[i,j] = sum_k A[i,k] * B[k,j]
func matmulRows(c, a, b []float32, start, end, k, n int) {
	for i := start; i < end; i++ {
		cRow := c[i*n : (i+1)*n]
		for j := range cRow {
			cRow[j] = 0
		}
		aRow := a[i*k : (i+1)*k]
		for kIdx, aik := range aRow {
			bRow := b[kIdx*n : (kIdx+1)*n]
			for j, bkj := range bRow {
				cRow[j] += aik * bkj
			}
		}
	}
}

// VectorAdd broadcasts the column vector vec (in.rows × 1) across every column of in.
func VectorAdd(in, vec, out *Matrix) {
	must(CheckVectorAdd(in, vec, out))
	cols := in.cols
	for i := 0; i < in.rows; i++ {
		bi := vec.data[i]
		for j := i * cols; j < (i+1)*cols; j++ {
			out.data[j] = in.data[j] + bi
		}
	}
}

// RowMean reduces each row of in to its mean, producing an in.rows × 1 vector.
func RowMean(in, out *Matrix) {
	must(CheckRowMean(in, out))
	cols := float32(in.cols)
	for i := 0; i < in.rows; i++ {
		var sum float32
		for _, v := range in.data[i*in.cols : (i+1)*in.cols] {
			sum += v
		}
		out.data[i] = sum / cols
	}
}

// Sum reduces the whole matrix to one scalar.
func Sum(in *Matrix) float32 {
	must(checkLive("sum", in))
	var sum float32
	for _, v := range in.data {
		sum += v
	}
	return sum
}

// ArgMax writes, for each column of in, the row index of its maximum into the
// 1 × in.cols output. The first maximum wins: a later row replaces the
// current one only when strictly greater.
func ArgMax(in, out *Matrix) {
	must(CheckArgMax(in, out))
	for j := 0; j < in.cols; j++ {
		best := 0
		maxVal := in.data[j]
		for i := 1; i < in.rows; i++ {
			if v := in.data[i*in.cols+j]; v > maxVal {
				maxVal = v
				best = i
			}
		}
		out.data[j] = float32(best)
	}
}

// ArgMaxIndices is ArgMax returning plain ints, for use at the program boundary.
func ArgMaxIndices(in *Matrix) []int {
	row := New(1, in.Cols())
	ArgMax(in, row)
	idx := make([]int, row.cols)
	for j, v := range row.data {
		idx[j] = int(v)
	}
	return idx
}

// OneHot expands a 1 × N row of class indices into the numClasses × N indicator out.
// out must already be zero: only the set entries are written.
func OneHot(in, out *Matrix, numClasses int) {
	must(CheckOneHot(in, out, numClasses))
	for j, v := range in.data {
		class := int(v)
		if class < 0 || class >= numClasses || float32(class) != v {
			panic(opError("one-hot", ErrIndexOutOfRange, in, out))
		}
		out.data[class*out.cols+j] = 1
	}
}
