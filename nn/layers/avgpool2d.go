package layers

import (
	"fmt"

	"diagtomodel/tensor"
)

// AvgPool2D averages non-overlapping p×p windows, the subsampling used by
// LeNet-5.
type AvgPool2D struct {
	poolSize int

	lastShape []int
}

func NewAvgPool2D(p int) *AvgPool2D {
	return &AvgPool2D{poolSize: p}
}

func (a *AvgPool2D) OutputShape(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%s: input must be [C,H,W], got %v", a.Tag(), in)
	}
	if in[1] < a.poolSize || in[2] < a.poolSize {
		return nil, fmt.Errorf("%s: input %v smaller than pool %d", a.Tag(), in, a.poolSize)
	}
	return []int{in[0], in[1] / a.poolSize, in[2] / a.poolSize}, nil
}

func (a *AvgPool2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	outShape, err := a.OutputShape(x.Shape)
	if err != nil {
		return nil, err
	}
	c, h, w := x.Shape[0], x.Shape[1], x.Shape[2]
	p := a.poolSize
	outH, outW := outShape[1], outShape[2]

	a.lastShape = append([]int(nil), x.Shape...)

	out := tensor.New(outShape...)
	for ch := 0; ch < c; ch++ {
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				sum := 0.0
				for ph := 0; ph < p; ph++ {
					for pw := 0; pw < p; pw++ {
						ih := oh*p + ph
						iw := ow*p + pw
						sum += x.Data[(ch*h+ih)*w+iw]
					}
				}
				out.Data[(ch*outH+oh)*outW+ow] = sum / float64(p*p)
			}
		}
	}
	return out, nil
}

// Backward spreads each output gradient evenly over its window.
func (a *AvgPool2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if a.lastShape == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", a.Tag())
	}
	c, h, w := a.lastShape[0], a.lastShape[1], a.lastShape[2]
	p := a.poolSize
	outH, outW := h/p, w/p
	if len(gradOut.Data) != c*outH*outW {
		return nil, fmt.Errorf("%s: gradient has %d values, want %d", a.Tag(), len(gradOut.Data), c*outH*outW)
	}

	inv := 1.0 / float64(p*p)
	inputGrad := tensor.New(a.lastShape...)
	for ch := 0; ch < c; ch++ {
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				g := gradOut.Data[(ch*outH+oh)*outW+ow] * inv
				for ph := 0; ph < p; ph++ {
					for pw := 0; pw < p; pw++ {
						ih := oh*p + ph
						iw := ow*p + pw
						inputGrad.Data[(ch*h+ih)*w+iw] = g
					}
				}
			}
		}
	}
	return inputGrad, nil
}

func (a *AvgPool2D) Update(float64) error { return nil }
func (a *AvgPool2D) Params() int          { return 0 }

func (a *AvgPool2D) Tag() string {
	return fmt.Sprintf("AvgPool2D_%dx%d", a.poolSize, a.poolSize)
}
