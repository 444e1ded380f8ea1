package layers

import (
	"fmt"

	"diagtomodel/tensor"
)

// SeparableConv2D factors a convolution into a per-channel depthwise pass
// followed by a 1×1 pointwise projection, as used throughout Xception.
type SeparableConv2D struct {
	inChan, outChan int
	kh, kw          int
	stride          int
	padding         Padding

	DW *tensor.Tensor // depthwise weights: [inChan, kh, kw]
	PW *tensor.Tensor // pointwise weights: [outChan, inChan]
	B  *tensor.Tensor // bias: [outChan]

	lastInput     *tensor.Tensor
	lastDepthwise *tensor.Tensor

	gradDW *tensor.Tensor
	gradPW *tensor.Tensor
	gradB  *tensor.Tensor
}

// NewSeparableConv2D creates a separable convolution with a k×k depthwise
// kernel.
func NewSeparableConv2D(inChan, outChan, k, stride int, padding Padding) *SeparableConv2D {
	return &SeparableConv2D{
		inChan:  inChan,
		outChan: outChan,
		kh:      k,
		kw:      k,
		stride:  stride,
		padding: padding,
		DW:      tensor.New(inChan, k, k),
		PW:      tensor.New(outChan, inChan),
		B:       tensor.New(outChan),
		gradDW:  tensor.New(inChan, k, k),
		gradPW:  tensor.New(outChan, inChan),
		gradB:   tensor.New(outChan),
	}
}

func (s *SeparableConv2D) OutputShape(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%s: input must be [C,H,W], got %v", s.Tag(), in)
	}
	if in[0] != s.inChan {
		return nil, fmt.Errorf("%s: expected %d input channels, got %d", s.Tag(), s.inChan, in[0])
	}
	outH, err := outDim(in[1], s.kh, s.stride, s.padding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Tag(), err)
	}
	outW, err := outDim(in[2], s.kw, s.stride, s.padding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Tag(), err)
	}
	return []int{s.outChan, outH, outW}, nil
}

func (s *SeparableConv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	outShape, err := s.OutputShape(input.Shape)
	if err != nil {
		return nil, err
	}
	h, w := input.Shape[1], input.Shape[2]
	outH, outW := outShape[1], outShape[2]
	padT := padBefore(h, s.kh, s.stride, s.padding)
	padL := padBefore(w, s.kw, s.stride, s.padding)

	s.lastInput = input

	// Depthwise pass: each input channel convolved with its own kernel.
	mid := tensor.New(s.inChan, outH, outW)
	for ic := 0; ic < s.inChan; ic++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				sum := 0.0
				for dy := 0; dy < s.kh; dy++ {
					iy := oy*s.stride + dy - padT
					if iy < 0 || iy >= h {
						continue
					}
					for dx := 0; dx < s.kw; dx++ {
						ix := ox*s.stride + dx - padL
						if ix < 0 || ix >= w {
							continue
						}
						sum += input.Data[(ic*h+iy)*w+ix] * s.DW.Data[(ic*s.kh+dy)*s.kw+dx]
					}
				}
				mid.Data[(ic*outH+oy)*outW+ox] = sum
			}
		}
	}
	s.lastDepthwise = mid

	// Pointwise pass: 1×1 projection across channels.
	output := tensor.New(s.outChan, outH, outW)
	for oc := 0; oc < s.outChan; oc++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				sum := s.B.Data[oc]
				for ic := 0; ic < s.inChan; ic++ {
					sum += s.PW.Data[oc*s.inChan+ic] * mid.Data[(ic*outH+oy)*outW+ox]
				}
				output.Data[(oc*outH+oy)*outW+ox] = sum
			}
		}
	}
	return output, nil
}

func (s *SeparableConv2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if s.lastInput == nil || s.lastDepthwise == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", s.Tag())
	}
	if len(gradOut.Shape) != 3 || gradOut.Shape[0] != s.outChan {
		return nil, fmt.Errorf("%s: gradient must be [%d,outH,outW], got %v", s.Tag(), s.outChan, gradOut.Shape)
	}

	h, w := s.lastInput.Shape[1], s.lastInput.Shape[2]
	outH, outW := gradOut.Shape[1], gradOut.Shape[2]
	padT := padBefore(h, s.kh, s.stride, s.padding)
	padL := padBefore(w, s.kw, s.stride, s.padding)

	s.gradDW = tensor.New(s.inChan, s.kh, s.kw)
	s.gradPW = tensor.New(s.outChan, s.inChan)
	s.gradB = tensor.New(s.outChan)

	// Pointwise backward: bias, projection weights, and gradient w.r.t. the
	// depthwise output.
	gradMid := tensor.New(s.inChan, outH, outW)
	for oc := 0; oc < s.outChan; oc++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				g := gradOut.Data[(oc*outH+oy)*outW+ox]
				s.gradB.Data[oc] += g
				for ic := 0; ic < s.inChan; ic++ {
					midIdx := (ic*outH+oy)*outW + ox
					s.gradPW.Data[oc*s.inChan+ic] += g * s.lastDepthwise.Data[midIdx]
					gradMid.Data[midIdx] += g * s.PW.Data[oc*s.inChan+ic]
				}
			}
		}
	}

	// Depthwise backward.
	inputGrad := tensor.New(s.lastInput.Shape...)
	for ic := 0; ic < s.inChan; ic++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				g := gradMid.Data[(ic*outH+oy)*outW+ox]
				for dy := 0; dy < s.kh; dy++ {
					iy := oy*s.stride + dy - padT
					if iy < 0 || iy >= h {
						continue
					}
					for dx := 0; dx < s.kw; dx++ {
						ix := ox*s.stride + dx - padL
						if ix < 0 || ix >= w {
							continue
						}
						inIdx := (ic*h+iy)*w + ix
						s.gradDW.Data[(ic*s.kh+dy)*s.kw+dx] += s.lastInput.Data[inIdx] * g
						inputGrad.Data[inIdx] += s.DW.Data[(ic*s.kh+dy)*s.kw+dx] * g
					}
				}
			}
		}
	}
	return inputGrad, nil
}

func (s *SeparableConv2D) Update(lr float64) error {
	for i := range s.DW.Data {
		s.DW.Data[i] -= lr * s.gradDW.Data[i]
	}
	for i := range s.PW.Data {
		s.PW.Data[i] -= lr * s.gradPW.Data[i]
	}
	for i := range s.B.Data {
		s.B.Data[i] -= lr * s.gradB.Data[i]
	}
	return nil
}

func (s *SeparableConv2D) Params() int {
	return s.inChan*s.kh*s.kw + s.outChan*s.inChan + s.outChan
}

func (s *SeparableConv2D) ParamTensors() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{
		"depthwise_weight": s.DW,
		"pointwise_weight": s.PW,
		"bias":             s.B,
	}
}

func (s *SeparableConv2D) Tag() string {
	return fmt.Sprintf("SeparableConv2D_%d_%d_%dx%d", s.inChan, s.outChan, s.kh, s.kw)
}
