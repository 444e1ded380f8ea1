package layers

import (
	"fmt"

	"diagtomodel/tensor"
)

// Flatten collapses its input to a rank-1 tensor.
type Flatten struct {
	lastShape []int
}

func NewFlatten() *Flatten {
	return &Flatten{}
}

func (f *Flatten) OutputShape(in []int) ([]int, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%s: empty input shape", f.Tag())
	}
	size := 1
	for _, d := range in {
		size *= d
	}
	return []int{size}, nil
}

func (f *Flatten) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	f.lastShape = append([]int(nil), x.Shape...)
	return tensor.NewWithData(x.Data), nil
}

func (f *Flatten) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if f.lastShape == nil {
		return nil, fmt.Errorf("%s: no cached shape for backward pass", f.Tag())
	}
	inputGrad := tensor.New(f.lastShape...)
	copy(inputGrad.Data, gradOut.Data)
	return inputGrad, nil
}

func (f *Flatten) Update(float64) error { return nil }
func (f *Flatten) Params() int          { return 0 }
func (f *Flatten) Tag() string          { return "Flatten" }
