package nn

import (
	"strconv"

	"diagtomodel/tensor"
)

// Module defines a single layer/unit in the network.
type Module interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	// Backward computes gradients and propagates them.
	// It takes the gradient of the loss with respect to the module's output,
	// and returns the gradient of the loss with respect to the module's input.
	Backward(grad *tensor.Tensor) (*tensor.Tensor, error)
	// Update applies the gradients accumulated by the last Backward call.
	Update(lr float64) error
	// OutputShape reports the shape produced for an input of the given shape
	// without running the layer.
	OutputShape(in []int) ([]int, error)
	// Params returns the number of trainable parameters.
	Params() int
	Tag() string
}

// Container is implemented by modules that are composed of submodules
// (Sequential, branch merges).
type Container interface {
	Submodules() []Module
}

// Parametrized is implemented by modules carrying trainable tensors.
// Keys name the tensors ("weight", "bias", "gamma", ...).
type Parametrized interface {
	ParamTensors() map[string]*tensor.Tensor
}

// TrainingAware is implemented by modules whose forward pass differs between
// training and inference (Dropout, BatchNorm).
type TrainingAware interface {
	SetTraining(training bool)
}

// Sequential chains multiple Modules in order. An empty Sequential is the
// identity, which branch merges use as a skip connection.
type Sequential struct {
	Layers []Module
}

// NewSequential builds a Sequential from the given modules.
func NewSequential(mods ...Module) *Sequential {
	return &Sequential{Layers: mods}
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := x
	for _, layer := range s.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Backward applies Backward in reverse order.
func (s *Sequential) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := grad
	for i := len(s.Layers) - 1; i >= 0; i-- {
		out, err = s.Layers[i].Backward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update applies gradients on every layer.
func (s *Sequential) Update(lr float64) error {
	for _, layer := range s.Layers {
		if err := layer.Update(lr); err != nil {
			return err
		}
	}
	return nil
}

// OutputShape chains shape inference through all layers.
func (s *Sequential) OutputShape(in []int) ([]int, error) {
	var err error
	shape := in
	for _, layer := range s.Layers {
		shape, err = layer.OutputShape(shape)
		if err != nil {
			return nil, err
		}
	}
	return shape, nil
}

// Params sums Params() of all layers.
func (s *Sequential) Params() int {
	sum := 0
	for _, layer := range s.Layers {
		sum += layer.Params()
	}
	return sum
}

func (s *Sequential) Tag() string { return "Sequential" }

func (s *Sequential) Submodules() []Module { return s.Layers }

// Walk visits m and every nested submodule, passing a slash-separated index
// path ("" for the root, "3/0" for the first submodule of the fourth layer).
func Walk(m Module, fn func(path string, m Module)) {
	walk("", m, fn)
}

func walk(path string, m Module, fn func(path string, m Module)) {
	fn(path, m)
	c, ok := m.(Container)
	if !ok {
		return
	}
	for i, sub := range c.Submodules() {
		p := strconv.Itoa(i)
		if path != "" {
			p = path + "/" + p
		}
		walk(p, sub, fn)
	}
}

// SetTraining switches every training-aware module in the tree between
// training and inference behavior.
func SetTraining(m Module, training bool) {
	Walk(m, func(_ string, mod Module) {
		if ta, ok := mod.(TrainingAware); ok {
			ta.SetTraining(training)
		}
	})
}
