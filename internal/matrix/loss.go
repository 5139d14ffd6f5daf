package matrix

import "github.com/chewxy/math32"

// Loss functions compare a prediction with its ground truth column by column
// (one column per sample) and return the mean over columns.

// CategoricalCrossEntropy returns -mean_j(Σ_i gt[i,j] · ln pred[i,j]).
// groundTruth must be one-hot encoded.
func CategoricalCrossEntropy(pred, groundTruth *Matrix) float32 {
	must(checkSame("categorical cross-entropy", pred, groundTruth))
	var loss float32
	for j := 0; j < pred.cols; j++ {
		var colLoss float32
		for i := 0; i < pred.rows; i++ {
			idx := i*pred.cols + j
			if gt := groundTruth.data[idx]; gt != 0 {
				colLoss += gt * math32.Log(pred.data[idx])
			}
		}
		loss -= colLoss
	}
	return loss / float32(pred.cols)
}

// MSE returns mean_j(Σ_i (gt[i,j] - pred[i,j])²).
func MSE(pred, groundTruth *Matrix) float32 {
	must(checkSame("mse", pred, groundTruth))
	var loss float32
	for j := 0; j < pred.cols; j++ {
		var colLoss float32
		for i := 0; i < pred.rows; i++ {
			idx := i*pred.cols + j
			d := groundTruth.data[idx] - pred.data[idx]
			colLoss += d * d
		}
		loss += colLoss
	}
	return loss / float32(pred.cols)
}

// LogLoss returns the binary cross-entropy
// -mean_j(Σ_i gt·ln p + (1-gt)·ln(1-p)) for 0/1 ground truth.
func LogLoss(pred, groundTruth *Matrix) float32 {
	must(checkSame("log-loss", pred, groundTruth))
	var loss float32
	for j := 0; j < pred.cols; j++ {
		var colLoss float32
		for i := 0; i < pred.rows; i++ {
			idx := i*pred.cols + j
			gt, p := groundTruth.data[idx], pred.data[idx]
			// Zero-weight terms are skipped so a saturated p cannot yield 0·(-Inf).
			if gt != 0 {
				colLoss += gt * math32.Log(p)
			}
			if gt != 1 {
				colLoss += (1 - gt) * math32.Log(1-p)
			}
		}
		loss += colLoss
	}
	return -loss / float32(pred.cols)
}
