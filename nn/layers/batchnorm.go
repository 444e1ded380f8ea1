package layers

import (
	"fmt"
	"math"

	"diagtomodel/tensor"
)

// BatchNorm normalizes each channel over its spatial positions. Training mode
// uses the sample statistics and maintains running estimates; inference mode
// uses the running estimates.
type BatchNorm struct {
	channels int
	momentum float64
	eps      float64

	Gamma       *tensor.Tensor // scale: [channels]
	Beta        *tensor.Tensor // shift: [channels]
	RunningMean *tensor.Tensor
	RunningVar  *tensor.Tensor

	training bool

	lastInput *tensor.Tensor
	lastMean  []float64
	lastVar   []float64

	gradGamma *tensor.Tensor
	gradBeta  *tensor.Tensor
}

// NewBatchNorm creates a batch normalization layer with Keras defaults
// (momentum 0.99, epsilon 1e-3).
func NewBatchNorm(channels int) *BatchNorm {
	bn := &BatchNorm{
		channels:    channels,
		momentum:    0.99,
		eps:         1e-3,
		Gamma:       tensor.New(channels),
		Beta:        tensor.New(channels),
		RunningMean: tensor.New(channels),
		RunningVar:  tensor.New(channels),
		training:    true,
		gradGamma:   tensor.New(channels),
		gradBeta:    tensor.New(channels),
	}
	for i := 0; i < channels; i++ {
		bn.Gamma.Data[i] = 1
		bn.RunningVar.Data[i] = 1
	}
	return bn
}

func (b *BatchNorm) SetTraining(training bool) { b.training = training }

func (b *BatchNorm) OutputShape(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%s: input must be [C,H,W], got %v", b.Tag(), in)
	}
	if in[0] != b.channels {
		return nil, fmt.Errorf("%s: expected %d channels, got %d", b.Tag(), b.channels, in[0])
	}
	return append([]int(nil), in...), nil
}

func (b *BatchNorm) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if _, err := b.OutputShape(x.Shape); err != nil {
		return nil, err
	}
	h, w := x.Shape[1], x.Shape[2]
	n := float64(h * w)

	b.lastInput = x
	b.lastMean = make([]float64, b.channels)
	b.lastVar = make([]float64, b.channels)

	out := tensor.New(x.Shape...)
	for c := 0; c < b.channels; c++ {
		start, end := c*h*w, (c+1)*h*w
		var mean, variance float64
		if b.training {
			for i := start; i < end; i++ {
				mean += x.Data[i]
			}
			mean /= n
			for i := start; i < end; i++ {
				d := x.Data[i] - mean
				variance += d * d
			}
			variance /= n
			b.RunningMean.Data[c] = b.RunningMean.Data[c]*b.momentum + mean*(1-b.momentum)
			b.RunningVar.Data[c] = b.RunningVar.Data[c]*b.momentum + variance*(1-b.momentum)
		} else {
			mean = b.RunningMean.Data[c]
			variance = b.RunningVar.Data[c]
		}
		b.lastMean[c] = mean
		b.lastVar[c] = variance

		invStd := 1.0 / math.Sqrt(variance+b.eps)
		for i := start; i < end; i++ {
			out.Data[i] = b.Gamma.Data[c]*(x.Data[i]-mean)*invStd + b.Beta.Data[c]
		}
	}
	return out, nil
}

func (b *BatchNorm) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if b.lastInput == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", b.Tag())
	}
	if !tensor.SameShape(gradOut, b.lastInput) {
		return nil, fmt.Errorf("%s: gradient shape %v, want %v", b.Tag(), gradOut.Shape, b.lastInput.Shape)
	}
	h, w := b.lastInput.Shape[1], b.lastInput.Shape[2]
	n := float64(h * w)

	b.gradGamma = tensor.New(b.channels)
	b.gradBeta = tensor.New(b.channels)
	inputGrad := tensor.New(b.lastInput.Shape...)

	for c := 0; c < b.channels; c++ {
		start, end := c*h*w, (c+1)*h*w
		invStd := 1.0 / math.Sqrt(b.lastVar[c]+b.eps)

		if !b.training {
			// Running statistics are constants; the layer is affine.
			scale := b.Gamma.Data[c] * invStd
			for i := start; i < end; i++ {
				xhat := (b.lastInput.Data[i] - b.lastMean[c]) * invStd
				b.gradGamma.Data[c] += gradOut.Data[i] * xhat
				b.gradBeta.Data[c] += gradOut.Data[i]
				inputGrad.Data[i] = gradOut.Data[i] * scale
			}
			continue
		}

		var sumG, sumGX float64
		for i := start; i < end; i++ {
			xhat := (b.lastInput.Data[i] - b.lastMean[c]) * invStd
			b.gradGamma.Data[c] += gradOut.Data[i] * xhat
			b.gradBeta.Data[c] += gradOut.Data[i]
			sumG += gradOut.Data[i]
			sumGX += gradOut.Data[i] * xhat
		}
		scale := b.Gamma.Data[c] * invStd / n
		for i := start; i < end; i++ {
			xhat := (b.lastInput.Data[i] - b.lastMean[c]) * invStd
			inputGrad.Data[i] = scale * (n*gradOut.Data[i] - sumG - xhat*sumGX)
		}
	}
	return inputGrad, nil
}

func (b *BatchNorm) Update(lr float64) error {
	for i := range b.Gamma.Data {
		b.Gamma.Data[i] -= lr * b.gradGamma.Data[i]
	}
	for i := range b.Beta.Data {
		b.Beta.Data[i] -= lr * b.gradBeta.Data[i]
	}
	return nil
}

// Params counts the trainable scale and shift; running statistics are not
// trainable.
func (b *BatchNorm) Params() int { return 2 * b.channels }

func (b *BatchNorm) ParamTensors() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{
		"gamma":        b.Gamma,
		"beta":         b.Beta,
		"running_mean": b.RunningMean,
		"running_var":  b.RunningVar,
	}
}

func (b *BatchNorm) Tag() string {
	return fmt.Sprintf("BatchNorm_%d", b.channels)
}
