package layers

import (
	"fmt"

	"diagtomodel/tensor"
)

// MaxPool2D takes the maximum over size×size windows. Padded cells never win,
// so same padding only affects the output size.
type MaxPool2D struct {
	size    int
	stride  int
	padding Padding

	lastShape []int
	argmax    []int // winning flat input index per output element
}

// NewMaxPool2D creates a pooling layer; stride 0 defaults to the window size.
func NewMaxPool2D(size, stride int, padding Padding) *MaxPool2D {
	if stride == 0 {
		stride = size
	}
	return &MaxPool2D{size: size, stride: stride, padding: padding}
}

func (m *MaxPool2D) OutputShape(in []int) ([]int, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%s: input must be [C,H,W], got %v", m.Tag(), in)
	}
	outH, err := outDim(in[1], m.size, m.stride, m.padding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Tag(), err)
	}
	outW, err := outDim(in[2], m.size, m.stride, m.padding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Tag(), err)
	}
	return []int{in[0], outH, outW}, nil
}

func (m *MaxPool2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	outShape, err := m.OutputShape(input.Shape)
	if err != nil {
		return nil, err
	}
	ch, h, w := input.Shape[0], input.Shape[1], input.Shape[2]
	outH, outW := outShape[1], outShape[2]
	padT := padBefore(h, m.size, m.stride, m.padding)
	padL := padBefore(w, m.size, m.stride, m.padding)

	m.lastShape = append([]int(nil), input.Shape...)
	m.argmax = make([]int, ch*outH*outW)

	out := tensor.New(outShape...)
	for c := 0; c < ch; c++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				best := 0.0
				bestIdx := -1
				for dy := 0; dy < m.size; dy++ {
					iy := oy*m.stride + dy - padT
					if iy < 0 || iy >= h {
						continue
					}
					for dx := 0; dx < m.size; dx++ {
						ix := ox*m.stride + dx - padL
						if ix < 0 || ix >= w {
							continue
						}
						idx := (c*h+iy)*w + ix
						if bestIdx < 0 || input.Data[idx] > best {
							best = input.Data[idx]
							bestIdx = idx
						}
					}
				}
				outIdx := (c*outH+oy)*outW + ox
				m.argmax[outIdx] = bestIdx
				if bestIdx >= 0 {
					out.Data[outIdx] = best
				}
			}
		}
	}
	return out, nil
}

// Backward routes each output gradient to the input cell that won the max.
func (m *MaxPool2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if m.argmax == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", m.Tag())
	}
	if len(gradOut.Data) != len(m.argmax) {
		return nil, fmt.Errorf("%s: gradient has %d values, want %d", m.Tag(), len(gradOut.Data), len(m.argmax))
	}
	inputGrad := tensor.New(m.lastShape...)
	for i, idx := range m.argmax {
		if idx >= 0 {
			inputGrad.Data[idx] += gradOut.Data[i]
		}
	}
	return inputGrad, nil
}

func (m *MaxPool2D) Update(float64) error { return nil }
func (m *MaxPool2D) Params() int          { return 0 }

func (m *MaxPool2D) Tag() string {
	return fmt.Sprintf("MaxPool2D_%dx%d_s%d", m.size, m.size, m.stride)
}
