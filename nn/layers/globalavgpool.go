package layers

import (
	"fmt"

	"diagtomodel/tensor"
)

// GlobalAvgPool2D reduces [C,H,W] to a length-C vector of spatial means.
type GlobalAvgPool2D struct {
	lastShape []int
}

func NewGlobalAvgPool2D() *GlobalAvgPool2D {
	return &GlobalAvgPool2D{}
}

func (g *GlobalAvgPool2D) OutputShape(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%s: input must be [C,H,W], got %v", g.Tag(), in)
	}
	return []int{in[0]}, nil
}

func (g *GlobalAvgPool2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if _, err := g.OutputShape(x.Shape); err != nil {
		return nil, err
	}
	c, h, w := x.Shape[0], x.Shape[1], x.Shape[2]
	g.lastShape = append([]int(nil), x.Shape...)

	out := tensor.New(c)
	n := float64(h * w)
	for ch := 0; ch < c; ch++ {
		sum := 0.0
		for i := ch * h * w; i < (ch+1)*h*w; i++ {
			sum += x.Data[i]
		}
		out.Data[ch] = sum / n
	}
	return out, nil
}

func (g *GlobalAvgPool2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if g.lastShape == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", g.Tag())
	}
	c, h, w := g.lastShape[0], g.lastShape[1], g.lastShape[2]
	if len(gradOut.Data) != c {
		return nil, fmt.Errorf("%s: gradient has %d values, want %d", g.Tag(), len(gradOut.Data), c)
	}
	inputGrad := tensor.New(g.lastShape...)
	inv := 1.0 / float64(h*w)
	for ch := 0; ch < c; ch++ {
		gv := gradOut.Data[ch] * inv
		for i := ch * h * w; i < (ch+1)*h*w; i++ {
			inputGrad.Data[i] = gv
		}
	}
	return inputGrad, nil
}

func (g *GlobalAvgPool2D) Update(float64) error { return nil }
func (g *GlobalAvgPool2D) Params() int          { return 0 }
func (g *GlobalAvgPool2D) Tag() string          { return "GlobalAvgPool2D" }
