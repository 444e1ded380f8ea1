package layers

import (
	"fmt"
	"strings"

	"diagtomodel/nn"
	"diagtomodel/tensor"
)

// Concat runs several branches on the same input and concatenates their
// outputs along the channel axis. All branches must produce matching
// spatial dimensions.
type Concat struct {
	Branches []*nn.Sequential

	lastChannels []int // channel count per branch, cached for backward
}

func NewConcat(branches ...*nn.Sequential) *Concat {
	return &Concat{Branches: branches}
}

func (c *Concat) OutputShape(in []int) ([]int, error) {
	if len(c.Branches) == 0 {
		return nil, fmt.Errorf("%s: no branches", c.Tag())
	}
	var out []int
	for i, b := range c.Branches {
		shape, err := b.OutputShape(in)
		if err != nil {
			return nil, fmt.Errorf("%s branch %d: %w", c.Tag(), i, err)
		}
		if len(shape) != 3 {
			return nil, fmt.Errorf("%s branch %d: expected output shape [C,H,W], got %v", c.Tag(), i, shape)
		}
		if out == nil {
			out = append([]int(nil), shape...)
			continue
		}
		if shape[1] != out[1] || shape[2] != out[2] {
			return nil, fmt.Errorf("%s: spatial mismatch between branches: %v vs %v", c.Tag(), out[1:], shape[1:])
		}
		out[0] += shape[0]
	}
	return out, nil
}

func (c *Concat) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	outs := make([]*tensor.Tensor, len(c.Branches))
	c.lastChannels = make([]int, len(c.Branches))
	for i, b := range c.Branches {
		out, err := b.Forward(x)
		if err != nil {
			return nil, fmt.Errorf("%s branch %d: %w", c.Tag(), i, err)
		}
		if len(out.Shape) != 3 {
			return nil, fmt.Errorf("%s branch %d: expected output shape [C,H,W], got %v", c.Tag(), i, out.Shape)
		}
		outs[i] = out
		c.lastChannels[i] = out.Shape[0]
	}
	merged, err := tensor.Concat(0, outs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Tag(), err)
	}
	return merged, nil
}

func (c *Concat) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if c.lastChannels == nil {
		return nil, fmt.Errorf("%s: no cached forward pass", c.Tag())
	}
	height, width := gradOut.Shape[1], gradOut.Shape[2]
	plane := height * width

	var total *tensor.Tensor
	cstart := 0
	for i, b := range c.Branches {
		ch := c.lastChannels[i]
		// Channel blocks are contiguous in the flat layout, so the
		// branch gradient is a plain slice of gradOut.
		blockGrad := &tensor.Tensor{
			Data:  gradOut.Data[cstart*plane : (cstart+ch)*plane],
			Shape: []int{ch, height, width},
		}
		g, err := b.Backward(blockGrad)
		if err != nil {
			return nil, fmt.Errorf("%s branch %d: %w", c.Tag(), i, err)
		}
		if total == nil {
			total = g.Clone()
		} else {
			total, err = tensor.Add(total, g)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Tag(), err)
			}
		}
		cstart += ch
	}
	return total, nil
}

func (c *Concat) Update(lr float64) error {
	for i, b := range c.Branches {
		if err := b.Update(lr); err != nil {
			return fmt.Errorf("%s branch %d: %w", c.Tag(), i, err)
		}
	}
	return nil
}

func (c *Concat) Params() int {
	total := 0
	for _, b := range c.Branches {
		total += b.Params()
	}
	return total
}

func (c *Concat) Submodules() []nn.Module {
	mods := make([]nn.Module, len(c.Branches))
	for i, b := range c.Branches {
		mods[i] = b
	}
	return mods
}

func (c *Concat) Tag() string {
	tags := make([]string, len(c.Branches))
	for i, b := range c.Branches {
		tags[i] = b.Tag()
	}
	return fmt.Sprintf("Concat[%s]", strings.Join(tags, ", "))
}
