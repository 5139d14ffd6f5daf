package matrix

// SigmoidDerivative writes σ'(z) = a·(1-a) elementwise, computed from the
// activation a = σ(z) rather than from z.
func SigmoidDerivative(activation, out *Matrix) {
	must(checkSame("sigmoid derivative", activation, out))
	for i, a := range activation.data {
		out.data[i] = a * (1 - a)
	}
}

// ReLUDerivative writes 1 where weightedInput >= 0 and 0 elsewhere.
func ReLUDerivative(weightedInput, out *Matrix) {
	must(checkSame("relu derivative", weightedInput, out))
	for i, z := range weightedInput.data {
		if z >= 0 {
			out.data[i] = 1
		} else {
			out.data[i] = 0
		}
	}
}

// SoftmaxCCECombinedDerivative writes dL/dz = a - gt for a softmax output layer
// trained with categorical cross-entropy against one-hot groundTruth.
//
// With CCE(z) = ln(Σ_j exp(z_j)) - z_k for true class k:
//
//	dCCE/dz_k = softmax(z_k) - 1
//	dCCE/dz_j = softmax(z_j), j != k
//
// It is only valid for that pairing.
func SoftmaxCCECombinedDerivative(activation, groundTruth, out *Matrix) {
	must(checkSame("softmax cce derivative", activation, groundTruth, out))
	for i, a := range activation.data {
		out.data[i] = a - groundTruth.data[i]
	}
}

// SigmoidLogLossCombinedDerivative writes dL/dz = a - gt for a sigmoid output
// layer trained with log-loss. The σ'(z) = a(1-a) factor cancels the
// 1/(a(1-a)) of the loss derivative.
func SigmoidLogLossCombinedDerivative(activation, groundTruth, out *Matrix) {
	must(checkSame("sigmoid log-loss derivative", activation, groundTruth, out))
	for i, a := range activation.data {
		out.data[i] = a - groundTruth.data[i]
	}
}

// MSEDerivative writes dL/da = 2·(a - gt), the per-sample derivative of the
// squared error with respect to the prediction.
func MSEDerivative(activation, groundTruth, out *Matrix) {
	must(checkSame("mse derivative", activation, groundTruth, out))
	for i, a := range activation.data {
		out.data[i] = 2 * (a - groundTruth.data[i])
	}
}

// MSEReLUCombinedDerivative writes dL/dz = 2·(a - gt) ⊙ relu'(z) for a ReLU
// output layer trained with mean squared error.
func MSEReLUCombinedDerivative(weightedInput, activation, groundTruth, out *Matrix) {
	must(checkSame("mse relu derivative", weightedInput, activation, groundTruth, out))
	for i, z := range weightedInput.data {
		if z >= 0 {
			out.data[i] = 2 * (activation.data[i] - groundTruth.data[i])
		} else {
			out.data[i] = 0
		}
	}
}
