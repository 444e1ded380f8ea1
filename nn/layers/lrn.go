package layers

import (
	"fmt"
	"math"

	"diagtomodel/tensor"
)

// LocalResponseNorm normalizes each activation by a sum of squares over
// neighboring channels at the same spatial position:
//
//	y_i = x_i / (k + alpha*sum_{j near i} x_j^2)^beta
//
// The defaults match the AlexNet paper (depth 5, k 2, alpha 1e-4, beta 0.75).
type LocalResponseNorm struct {
	depth int
	bias  float64
	alpha float64
	beta  float64

	lastInput  *tensor.Tensor
	lastBase   []float64 // k + alpha*sum per element
	lastOutput *tensor.Tensor
}

func NewLocalResponseNorm(depth int, bias, alpha, beta float64) *LocalResponseNorm {
	return &LocalResponseNorm{depth: depth, bias: bias, alpha: alpha, beta: beta}
}

// NewAlexNetLRN returns a LocalResponseNorm with the AlexNet constants.
func NewAlexNetLRN() *LocalResponseNorm {
	return NewLocalResponseNorm(5, 2, 1e-4, 0.75)
}

func (l *LocalResponseNorm) OutputShape(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%s: expected input shape [C,H,W], got %v", l.Tag(), in)
	}
	return append([]int(nil), in...), nil
}

func (l *LocalResponseNorm) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 3 {
		return nil, fmt.Errorf("%s: expected input shape [C,H,W], got %v", l.Tag(), x.Shape)
	}
	channels, height, width := x.Shape[0], x.Shape[1], x.Shape[2]
	plane := height * width
	half := l.depth / 2

	out := tensor.New(x.Shape...)
	base := make([]float64, len(x.Data))
	for c := 0; c < channels; c++ {
		lo := c - half
		if lo < 0 {
			lo = 0
		}
		hi := c + half
		if hi > channels-1 {
			hi = channels - 1
		}
		for p := 0; p < plane; p++ {
			sum := 0.0
			for j := lo; j <= hi; j++ {
				v := x.Data[j*plane+p]
				sum += v * v
			}
			idx := c*plane + p
			base[idx] = l.bias + l.alpha*sum
			out.Data[idx] = x.Data[idx] * math.Pow(base[idx], -l.beta)
		}
	}
	l.lastInput = x
	l.lastBase = base
	l.lastOutput = out
	return out, nil
}

func (l *LocalResponseNorm) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", l.Tag())
	}
	x := l.lastInput
	channels, height, width := x.Shape[0], x.Shape[1], x.Shape[2]
	plane := height * width
	half := l.depth / 2

	inputGrad := tensor.New(x.Shape...)
	for c := 0; c < channels; c++ {
		lo := c - half
		if lo < 0 {
			lo = 0
		}
		hi := c + half
		if hi > channels-1 {
			hi = channels - 1
		}
		for p := 0; p < plane; p++ {
			idx := c*plane + p
			// Direct term plus cross-channel terms from every output
			// whose window covers channel c.
			g := gradOut.Data[idx] * math.Pow(l.lastBase[idx], -l.beta)
			cross := 0.0
			for j := lo; j <= hi; j++ {
				jdx := j*plane + p
				cross += gradOut.Data[jdx] * l.lastOutput.Data[jdx] / l.lastBase[jdx]
			}
			g -= 2 * l.alpha * l.beta * x.Data[idx] * cross
			inputGrad.Data[idx] = g
		}
	}
	return inputGrad, nil
}

func (l *LocalResponseNorm) Update(float64) error { return nil }
func (l *LocalResponseNorm) Params() int          { return 0 }

func (l *LocalResponseNorm) Tag() string {
	return fmt.Sprintf("LocalResponseNorm_%d", l.depth)
}
