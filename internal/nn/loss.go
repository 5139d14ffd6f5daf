package nn

import (
	"fmt"

	"github.com/born-ml/mlp/internal/matrix"
)

// Loss scores an output layer's activation against its ground truth and
// supplies the gradient that starts backpropagation.
//
// Each Loss is paired with exactly one output activation, so OutputGradient
// returns the fused dL/dZ for that pairing rather than dL/dA.
type Loss interface {
	Name() string

	// Compute returns the loss averaged over the batch columns.
	Compute(prediction, groundTruth *matrix.Matrix) float32

	// OutputGradient writes the per-sample dL/dZ of the output layer.
	OutputGradient(weightedInput, activation, groundTruth, out *matrix.Matrix)
}

// crossEntropyLoss pairs with Softmax; groundTruth is one-hot.
type crossEntropyLoss struct{}

func (crossEntropyLoss) Name() string { return "categorical_cross_entropy" }

func (crossEntropyLoss) Compute(pred, gt *matrix.Matrix) float32 {
	return matrix.CategoricalCrossEntropy(pred, gt)
}

func (crossEntropyLoss) OutputGradient(_, a, gt, out *matrix.Matrix) {
	matrix.SoftmaxCCECombinedDerivative(a, gt, out)
}

// logLoss pairs with Sigmoid.
type logLoss struct{}

func (logLoss) Name() string { return "log_loss" }

func (logLoss) Compute(pred, gt *matrix.Matrix) float32 { return matrix.LogLoss(pred, gt) }

func (logLoss) OutputGradient(_, a, gt, out *matrix.Matrix) {
	matrix.SigmoidLogLossCombinedDerivative(a, gt, out)
}

// mseLoss pairs with ReLU.
type mseLoss struct{}

func (mseLoss) Name() string { return "mse" }

func (mseLoss) Compute(pred, gt *matrix.Matrix) float32 { return matrix.MSE(pred, gt) }

func (mseLoss) OutputGradient(z, a, gt, out *matrix.Matrix) {
	matrix.MSEReLUCombinedDerivative(z, a, gt, out)
}

// outputLosses maps an output activation to the loss it is trained with.
var outputLosses = map[ActivationType]Loss{
	ReLU:    mseLoss{},
	Sigmoid: logLoss{},
	Softmax: crossEntropyLoss{},
}

// LossFor returns the loss used when t is the activation of the last layer.
func LossFor(t ActivationType) (Loss, error) {
	loss, ok := outputLosses[t]
	if !ok {
		return nil, fmt.Errorf("%w: no loss for output activation %s", ErrUnsupportedConfiguration, t)
	}
	return loss, nil
}
