package layers

import (
	"fmt"

	"diagtomodel/tensor"
)

// Conv2D is a 2D convolutional layer over [C,H,W] tensors with square
// kernels, configurable stride, and valid or same padding.
type Conv2D struct {
	inChan, outChan int // number of input/output channels
	kh, kw          int // kernel height and width
	stride          int
	padding         Padding

	W *tensor.Tensor // weights: [outChan, inChan, kh, kw]
	B *tensor.Tensor // bias: [outChan]

	// Cached input for the backward pass
	lastInput *tensor.Tensor

	// Gradient storage
	gradW *tensor.Tensor
	gradB *tensor.Tensor
}

// NewConv2D creates a new Conv2D layer with a k×k kernel.
func NewConv2D(inChan, outChan, k, stride int, padding Padding) *Conv2D {
	return &Conv2D{
		inChan:  inChan,
		outChan: outChan,
		kh:      k,
		kw:      k,
		stride:  stride,
		padding: padding,
		W:       tensor.New(outChan, inChan, k, k),
		B:       tensor.New(outChan),
		gradW:   tensor.New(outChan, inChan, k, k),
		gradB:   tensor.New(outChan),
	}
}

// OutputShape reports [outChan, outH, outW] for an input of [inChan, H, W].
func (c *Conv2D) OutputShape(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%s: input must be [C,H,W], got %v", c.Tag(), in)
	}
	if in[0] != c.inChan {
		return nil, fmt.Errorf("%s: expected %d input channels, got %d", c.Tag(), c.inChan, in[0])
	}
	outH, err := outDim(in[1], c.kh, c.stride, c.padding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Tag(), err)
	}
	outW, err := outDim(in[2], c.kw, c.stride, c.padding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Tag(), err)
	}
	return []int{c.outChan, outH, outW}, nil
}

// Forward performs the convolution on a [C,H,W] tensor.
func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	outShape, err := c.OutputShape(input.Shape)
	if err != nil {
		return nil, err
	}
	h, w := input.Shape[1], input.Shape[2]
	outH, outW := outShape[1], outShape[2]
	padT := padBefore(h, c.kh, c.stride, c.padding)
	padL := padBefore(w, c.kw, c.stride, c.padding)

	// Cache input for backward pass
	c.lastInput = input

	output := tensor.New(c.outChan, outH, outW)
	for oc := 0; oc < c.outChan; oc++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				sum := c.B.Data[oc] // Start with bias
				for ic := 0; ic < c.inChan; ic++ {
					for dy := 0; dy < c.kh; dy++ {
						iy := oy*c.stride + dy - padT
						if iy < 0 || iy >= h {
							continue
						}
						for dx := 0; dx < c.kw; dx++ {
							ix := ox*c.stride + dx - padL
							if ix < 0 || ix >= w {
								continue
							}
							wIdx := ((oc*c.inChan+ic)*c.kh+dy)*c.kw + dx
							inIdx := (ic*h+iy)*w + ix
							sum += input.Data[inIdx] * c.W.Data[wIdx]
						}
					}
				}
				output.Data[(oc*outH+oy)*outW+ox] = sum
			}
		}
	}
	return output, nil
}

// Backward computes weight, bias, and input gradients from the output
// gradient of the last Forward call.
func (c *Conv2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if c.lastInput == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", c.Tag())
	}
	if len(gradOut.Shape) != 3 || gradOut.Shape[0] != c.outChan {
		return nil, fmt.Errorf("%s: gradient must be [%d,outH,outW], got %v", c.Tag(), c.outChan, gradOut.Shape)
	}

	h, w := c.lastInput.Shape[1], c.lastInput.Shape[2]
	outH, outW := gradOut.Shape[1], gradOut.Shape[2]
	padT := padBefore(h, c.kh, c.stride, c.padding)
	padL := padBefore(w, c.kw, c.stride, c.padding)

	c.gradW = tensor.New(c.outChan, c.inChan, c.kh, c.kw)
	c.gradB = tensor.New(c.outChan)
	inputGrad := tensor.New(c.lastInput.Shape...)

	for oc := 0; oc < c.outChan; oc++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				g := gradOut.Data[(oc*outH+oy)*outW+ox]
				c.gradB.Data[oc] += g
				for ic := 0; ic < c.inChan; ic++ {
					for dy := 0; dy < c.kh; dy++ {
						iy := oy*c.stride + dy - padT
						if iy < 0 || iy >= h {
							continue
						}
						for dx := 0; dx < c.kw; dx++ {
							ix := ox*c.stride + dx - padL
							if ix < 0 || ix >= w {
								continue
							}
							wIdx := ((oc*c.inChan+ic)*c.kh+dy)*c.kw + dx
							inIdx := (ic*h+iy)*w + ix
							c.gradW.Data[wIdx] += c.lastInput.Data[inIdx] * g
							inputGrad.Data[inIdx] += c.W.Data[wIdx] * g
						}
					}
				}
			}
		}
	}
	return inputGrad, nil
}

// Update applies the accumulated gradients with plain SGD.
func (c *Conv2D) Update(lr float64) error {
	for i := range c.W.Data {
		c.W.Data[i] -= lr * c.gradW.Data[i]
	}
	for i := range c.B.Data {
		c.B.Data[i] -= lr * c.gradB.Data[i]
	}
	return nil
}

func (c *Conv2D) Params() int {
	return c.outChan*c.inChan*c.kh*c.kw + c.outChan
}

func (c *Conv2D) ParamTensors() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"weight": c.W, "bias": c.B}
}

func (c *Conv2D) Tag() string {
	return fmt.Sprintf("Conv2D_%d_%d_%dx%d", c.inChan, c.outChan, c.kh, c.kw)
}
