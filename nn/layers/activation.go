package layers

import (
	"fmt"
	"math"

	"diagtomodel/tensor"
)

// activationFunc pairs an elementwise function with its derivative in terms
// of the input.
type activationFunc struct {
	f     func(float64) float64
	deriv func(float64) float64
}

// SupportedActivations maps activation names to their implementations.
// Softmax is not listed: it is folded into the cross-entropy loss.
var SupportedActivations = map[string]activationFunc{
	"relu": {
		f: func(x float64) float64 {
			if x > 0 {
				return x
			}
			return 0
		},
		deriv: func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		},
	},
	"tanh": {
		f: math.Tanh,
		deriv: func(x float64) float64 {
			t := math.Tanh(x)
			return 1 - t*t
		},
	},
	"sigmoid": {
		f: func(x float64) float64 {
			return 1 / (1 + math.Exp(-x))
		},
		deriv: func(x float64) float64 {
			s := 1 / (1 + math.Exp(-x))
			return s * (1 - s)
		},
	},
}

// Activation applies an elementwise nonlinearity.
type Activation struct {
	name string
	fn   activationFunc

	lastInput *tensor.Tensor
}

// NewActivation creates a new activation layer.
func NewActivation(name string) (*Activation, error) {
	fn, ok := SupportedActivations[name]
	if !ok {
		return nil, fmt.Errorf("unsupported activation: %s", name)
	}
	return &Activation{name: name, fn: fn}, nil
}

func (a *Activation) OutputShape(in []int) ([]int, error) {
	return append([]int(nil), in...), nil
}

func (a *Activation) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	a.lastInput = x
	out := tensor.New(x.Shape...)
	for i, v := range x.Data {
		out.Data[i] = a.fn.f(v)
	}
	return out, nil
}

func (a *Activation) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if a.lastInput == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", a.Tag())
	}
	if len(gradOut.Data) != len(a.lastInput.Data) {
		return nil, fmt.Errorf("%s: gradient has %d values, want %d", a.Tag(), len(gradOut.Data), len(a.lastInput.Data))
	}
	inputGrad := tensor.New(a.lastInput.Shape...)
	for i := range inputGrad.Data {
		inputGrad.Data[i] = gradOut.Data[i] * a.fn.deriv(a.lastInput.Data[i])
	}
	return inputGrad, nil
}

func (a *Activation) Update(float64) error { return nil }
func (a *Activation) Params() int          { return 0 }

func (a *Activation) Tag() string {
	return "Activation_" + a.name
}
