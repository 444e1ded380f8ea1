package layers

import (
	"fmt"

	"diagtomodel/tensor"

	"gonum.org/v1/gonum/mat"
)

// Dense is a fully-connected layer over 1-D tensors. The matrix math runs
// on gonum views of the flat weight storage.
type Dense struct {
	inDim, outDim int

	W *tensor.Tensor // weights: [outDim, inDim]
	B *tensor.Tensor // bias: [outDim]

	lastInput *tensor.Tensor

	gradW *tensor.Tensor
	gradB *tensor.Tensor
}

// NewDense creates a new inDim→outDim fully-connected layer.
func NewDense(inDim, outDim int) *Dense {
	return &Dense{
		inDim:  inDim,
		outDim: outDim,
		W:      tensor.New(outDim, inDim),
		B:      tensor.New(outDim),
		gradW:  tensor.New(outDim, inDim),
		gradB:  tensor.New(outDim),
	}
}

func (d *Dense) OutputShape(in []int) ([]int, error) {
	if len(in) != 1 {
		return nil, fmt.Errorf("%s: input must be 1-D, got %v", d.Tag(), in)
	}
	if in[0] != d.inDim {
		return nil, fmt.Errorf("%s: expected input size %d, got %d", d.Tag(), d.inDim, in[0])
	}
	return []int{d.outDim}, nil
}

// Forward computes y = W·x + b.
func (d *Dense) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if _, err := d.OutputShape(input.Shape); err != nil {
		return nil, err
	}
	d.lastInput = input

	wm := mat.NewDense(d.outDim, d.inDim, d.W.Data)
	xv := mat.NewVecDense(d.inDim, input.Data)
	var y mat.VecDense
	y.MulVec(wm, xv)

	out := tensor.New(d.outDim)
	for i := 0; i < d.outDim; i++ {
		out.Data[i] = y.AtVec(i) + d.B.Data[i]
	}
	return out, nil
}

// Backward computes dW = g·xᵀ, db = g, and returns Wᵀ·g.
func (d *Dense) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if d.lastInput == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", d.Tag())
	}
	if len(gradOut.Shape) != 1 || gradOut.Shape[0] != d.outDim {
		return nil, fmt.Errorf("%s: gradient must be [%d], got %v", d.Tag(), d.outDim, gradOut.Shape)
	}

	d.gradW = tensor.New(d.outDim, d.inDim)
	d.gradB = tensor.New(d.outDim)
	copy(d.gradB.Data, gradOut.Data)

	gv := mat.NewVecDense(d.outDim, gradOut.Data)
	xv := mat.NewVecDense(d.inDim, d.lastInput.Data)

	gw := mat.NewDense(d.outDim, d.inDim, d.gradW.Data)
	gw.Outer(1, gv, xv)

	wm := mat.NewDense(d.outDim, d.inDim, d.W.Data)
	var gi mat.VecDense
	gi.MulVec(wm.T(), gv)

	inputGrad := tensor.New(d.inDim)
	for i := 0; i < d.inDim; i++ {
		inputGrad.Data[i] = gi.AtVec(i)
	}
	return inputGrad, nil
}

func (d *Dense) Update(lr float64) error {
	for i := range d.W.Data {
		d.W.Data[i] -= lr * d.gradW.Data[i]
	}
	for i := range d.B.Data {
		d.B.Data[i] -= lr * d.gradB.Data[i]
	}
	return nil
}

func (d *Dense) Params() int {
	return d.outDim*d.inDim + d.outDim
}

func (d *Dense) ParamTensors() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"weight": d.W, "bias": d.B}
}

func (d *Dense) Tag() string {
	return fmt.Sprintf("Dense_%d_%d", d.inDim, d.outDim)
}
