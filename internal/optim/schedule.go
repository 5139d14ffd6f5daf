package optim

import "github.com/chewxy/math32"

// Constant is a Schedule that never changes the learning rate.
type Constant float32

// LR implements Schedule.
func (c Constant) LR(int) float32 { return float32(c) }

// StepDecay multiplies the learning rate by Factor every Every epochs:
//
//	lr(epoch) = Initial * Factor^(epoch / Every)
//
// A zero Every or Factor disables the decay.
type StepDecay struct {
	Initial float32
	Factor  float32
	Every   int
}

// LR implements Schedule.
func (s StepDecay) LR(epoch int) float32 {
	if s.Every <= 0 || s.Factor == 0 || epoch < s.Every {
		return s.Initial
	}
	return s.Initial * math32.Pow(s.Factor, float32(epoch/s.Every))
}
