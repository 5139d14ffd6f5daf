package matrix

import "github.com/chewxy/math32"

// Sigmoid computes out = 1 / (1 + exp(-in)) elementwise.
func Sigmoid(in, out *Matrix) {
	must(checkSame("sigmoid", in, out))
	for i, v := range in.data {
		out.data[i] = 1 / (1 + math32.Exp(-v))
	}
}

// ReLU computes out = max(0, in) elementwise.
func ReLU(in, out *Matrix) {
	must(checkSame("relu", in, out))
	for i, v := range in.data {
		if v >= 0 {
			out.data[i] = v
		} else {
			out.data[i] = 0
		}
	}
}

// Softmax normalizes every column of in to a probability distribution:
// out[i,j] = exp(in[i,j]) / Σ_k exp(in[k,j]).
//
// The column maximum is subtracted before exponentiation. The result is the
// same function; it only keeps exp from overflowing for logits above ~88.
func Softmax(in, out *Matrix) {
	must(checkSame("softmax", in, out))
	rows, cols := in.rows, in.cols

	for j := 0; j < cols; j++ {
		maxVal := math32.Inf(-1)
		for i := 0; i < rows; i++ {
			maxVal = math32.Max(maxVal, in.data[i*cols+j])
		}

		var expSum float32
		for i := 0; i < rows; i++ {
			e := math32.Exp(in.data[i*cols+j] - maxVal)
			out.data[i*cols+j] = e
			expSum += e
		}

		for i := 0; i < rows; i++ {
			out.data[i*cols+j] /= expSum
		}
	}
}
