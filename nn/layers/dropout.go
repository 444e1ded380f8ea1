package layers

import (
	"fmt"
	"math/rand"

	"diagtomodel/tensor"
)

// Dropout zeroes activations with probability ratio during training and
// rescales the survivors by 1/(1-ratio), so evaluation needs no scaling.
// In evaluation mode the layer is the identity.
type Dropout struct {
	ratio    float64
	training bool

	rng  *rand.Rand
	mask []float64
}

func NewDropout(ratio float64) (*Dropout, error) {
	if ratio < 0 || ratio >= 1 {
		return nil, fmt.Errorf("Dropout: ratio must be in [0,1), got %v", ratio)
	}
	return &Dropout{
		ratio:    ratio,
		training: true,
		rng:      rand.New(rand.NewSource(1)),
	}, nil
}

// Seed reseeds the mask generator, for reproducible runs.
func (d *Dropout) Seed(seed int64) {
	d.rng = rand.New(rand.NewSource(seed))
}

func (d *Dropout) SetTraining(training bool) {
	d.training = training
}

func (d *Dropout) OutputShape(in []int) ([]int, error) {
	return append([]int(nil), in...), nil
}

func (d *Dropout) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if !d.training || d.ratio == 0 {
		d.mask = nil
		return x.Clone(), nil
	}
	keep := 1 / (1 - d.ratio)
	d.mask = make([]float64, len(x.Data))
	out := tensor.New(x.Shape...)
	for i, v := range x.Data {
		if d.rng.Float64() < d.ratio {
			d.mask[i] = 0
		} else {
			d.mask[i] = keep
		}
		out.Data[i] = v * d.mask[i]
	}
	return out, nil
}

func (d *Dropout) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if d.mask == nil {
		return gradOut.Clone(), nil
	}
	if len(gradOut.Data) != len(d.mask) {
		return nil, fmt.Errorf("%s: gradient has %d values, want %d", d.Tag(), len(gradOut.Data), len(d.mask))
	}
	inputGrad := tensor.New(gradOut.Shape...)
	for i := range inputGrad.Data {
		inputGrad.Data[i] = gradOut.Data[i] * d.mask[i]
	}
	return inputGrad, nil
}

func (d *Dropout) Update(float64) error { return nil }
func (d *Dropout) Params() int          { return 0 }

func (d *Dropout) Tag() string {
	return fmt.Sprintf("Dropout_%.2f", d.ratio)
}
