package layers

import (
	"fmt"
	"strings"

	"diagtomodel/nn"
	"diagtomodel/tensor"
)

// Add runs several branches on the same input and sums their outputs
// elementwise. An empty Sequential branch acts as an identity skip
// connection, so Add expresses residual blocks.
type Add struct {
	Branches []*nn.Sequential
}

func NewAdd(branches ...*nn.Sequential) *Add {
	return &Add{Branches: branches}
}

func (a *Add) OutputShape(in []int) ([]int, error) {
	if len(a.Branches) == 0 {
		return nil, fmt.Errorf("%s: no branches", a.Tag())
	}
	var out []int
	for i, b := range a.Branches {
		shape, err := b.OutputShape(in)
		if err != nil {
			return nil, fmt.Errorf("%s branch %d: %w", a.Tag(), i, err)
		}
		if out == nil {
			out = append([]int(nil), shape...)
			continue
		}
		if len(shape) != len(out) {
			return nil, fmt.Errorf("%s: shape mismatch between branches: %v vs %v", a.Tag(), out, shape)
		}
		for d := range shape {
			if shape[d] != out[d] {
				return nil, fmt.Errorf("%s: shape mismatch between branches: %v vs %v", a.Tag(), out, shape)
			}
		}
	}
	return out, nil
}

func (a *Add) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var sum *tensor.Tensor
	for i, b := range a.Branches {
		out, err := b.Forward(x)
		if err != nil {
			return nil, fmt.Errorf("%s branch %d: %w", a.Tag(), i, err)
		}
		if sum == nil {
			sum = out.Clone()
			continue
		}
		sum, err = tensor.Add(sum, out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Tag(), err)
		}
	}
	if sum == nil {
		return nil, fmt.Errorf("%s: no branches", a.Tag())
	}
	return sum, nil
}

func (a *Add) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	var total *tensor.Tensor
	for i, b := range a.Branches {
		g, err := b.Backward(gradOut)
		if err != nil {
			return nil, fmt.Errorf("%s branch %d: %w", a.Tag(), i, err)
		}
		if total == nil {
			total = g.Clone()
			continue
		}
		total, err = tensor.Add(total, g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Tag(), err)
		}
	}
	if total == nil {
		return nil, fmt.Errorf("%s: no branches", a.Tag())
	}
	return total, nil
}

func (a *Add) Update(lr float64) error {
	for i, b := range a.Branches {
		if err := b.Update(lr); err != nil {
			return fmt.Errorf("%s branch %d: %w", a.Tag(), i, err)
		}
	}
	return nil
}

func (a *Add) Params() int {
	total := 0
	for _, b := range a.Branches {
		total += b.Params()
	}
	return total
}

func (a *Add) Submodules() []nn.Module {
	mods := make([]nn.Module, len(a.Branches))
	for i, b := range a.Branches {
		mods[i] = b
	}
	return mods
}

func (a *Add) Tag() string {
	tags := make([]string, len(a.Branches))
	for i, b := range a.Branches {
		tags[i] = b.Tag()
	}
	return fmt.Sprintf("Add[%s]", strings.Join(tags, ", "))
}
